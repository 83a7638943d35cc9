package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/multibody/joint"
	"go.viam.com/multibody/logging"
	"go.viam.com/multibody/multibody"
	"go.viam.com/multibody/scalar"
	"go.viam.com/multibody/spatial"
	"go.viam.com/multibody/urdf"
	"go.viam.com/multibody/utils"
)

const (
	flagURDF      = "urdf"
	flagMeshRoot  = "mesh-root"
	flagFreeFlyer = "free-flyer"
	flagName      = "name"
	flagDebug     = "debug"
	flagQ         = "q"
	flagDegrees   = "degrees"
	flagFrames    = "frames"
)

func newApp() *cli.App {
	modelFlags := []cli.Flag{
		&cli.PathFlag{
			Name:     flagURDF,
			Aliases:  []string{"f"},
			Usage:    "robot description `FILE`",
			Required: true,
		},
		&cli.PathFlag{
			Name:  flagMeshRoot,
			Usage: "resolve meshes below `DIR` instead of the description's directory",
		},
		&cli.BoolFlag{
			Name:  flagFreeFlyer,
			Usage: "mount the root link on a free-flyer joint",
		},
		&cli.StringFlag{
			Name:  flagName,
			Usage: "model name, defaults to the robot name",
		},
	}
	configFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  flagQ,
			Usage: "comma separated configuration, defaults to the neutral one",
		},
		&cli.BoolFlag{
			Name:  flagDegrees,
			Usage: "read revolute coordinates of --q in degrees",
		},
	}

	placementFlags := append(append(append([]cli.Flag{}, modelFlags...), configFlags...), &cli.BoolFlag{
		Name:  flagFrames,
		Usage: "list frames instead of joints",
	})

	return &cli.App{
		Name:  "multibody",
		Usage: "build and inspect kinematic models of URDF robots",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "inspect",
				Usage:  "print the joint tree, frames and collision objects",
				Flags:  modelFlags,
				Action: inspectAction,
			},
			{
				Name:   "placements",
				Usage:  "print the world placement of every joint, or every frame, at a configuration",
				Flags:  placementFlags,
				Action: placementsAction,
			},
			{
				Name:   "mass",
				Usage:  "print the total mass and center of mass at a configuration",
				Flags:  append(append([]cli.Flag{}, modelFlags...), configFlags...),
				Action: massAction,
			},
		},
	}
}

func loggerFrom(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("multibody")
	}
	return logging.NewLogger("multibody")
}

func loadModel(c *cli.Context) (*multibody.Model[scalar.Float], *multibody.GeometryModel, error) {
	opts := []urdf.Option{urdf.WithLogger(loggerFrom(c).Sublogger("urdf"))}
	if dir := c.Path(flagMeshRoot); dir != "" {
		opts = append(opts, urdf.WithMeshRoot(dir))
	}
	if c.Bool(flagFreeFlyer) {
		opts = append(opts, urdf.WithRootJoint(joint.NewFreeFlyer[scalar.Float]()))
	}
	if name := c.String(flagName); name != "" {
		opts = append(opts, urdf.WithModelName(name))
	}
	m, g, err := urdf.BuildModelFromFile(c.Path(flagURDF), opts...)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading %s", c.Path(flagURDF))
	}
	return m, g, nil
}

// configuration reads --q, converting revolute coordinates from degrees when asked.
func configuration(c *cli.Context, m *multibody.Model[scalar.Float]) ([]scalar.Float, error) {
	if c.String(flagQ) == "" {
		return multibody.NeutralConfiguration(m), nil
	}
	vals, err := utils.ParseFloatList(c.String(flagQ))
	if err != nil {
		return nil, errors.Wrap(err, "parsing --q")
	}
	if len(vals) != m.NQ {
		return nil, errors.Errorf("--q has %d entries, model expects %d", len(vals), m.NQ)
	}
	q := scalar.FromFloats[scalar.Float](vals)
	if !c.Bool(flagDegrees) {
		return q, nil
	}
	for _, j := range m.Joints {
		switch joint.Kind(j) {
		case joint.RevoluteX, joint.RevoluteY, joint.RevoluteZ, joint.RevoluteUnaligned:
			if err := joint.ConfigVectorAffineTransform(j, q, scalar.Float(utils.DegToRad(1)), 0, q); err != nil {
				return nil, err
			}
		default:
		}
	}
	return q, nil
}

func inspectAction(c *cli.Context) error {
	m, g, err := loadModel(c)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintln(w, m.String())

	frames := table.NewWriter()
	frames.SetTitle("frames")
	frames.AppendHeader(table.Row{"#", "Frame", "Type", "Joint", "Previous"})
	for i, f := range m.Frames {
		frames.AppendRow(table.Row{i, f.Name, f.Type, m.Names[f.ParentJoint], f.PreviousFrame})
	}
	fmt.Fprintln(w, frames.Render())

	if len(g.Objects) > 0 {
		objects := table.NewWriter()
		objects.SetTitle("collision objects")
		objects.AppendHeader(table.Row{"#", "Object", "Shape", "Joint", "Source"})
		for i, o := range g.Objects {
			objects.AppendRow(table.Row{i, o.Name, o.Geometry.Shape, m.Names[o.ParentJoint], o.Geometry.Source})
		}
		fmt.Fprintln(w, objects.Render())
	}
	return nil
}

func placementsAction(c *cli.Context) error {
	m, _, err := loadModel(c)
	if err != nil {
		return err
	}
	q, err := configuration(c, m)
	if err != nil {
		return err
	}
	d := multibody.NewData(m)
	multibody.ForwardKinematics(m, d, q)

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s at q=%v", m.Name, scalar.Floats(q)))
	t.AppendHeader(table.Row{"#", "Name", "X", "Y", "Z", "QW", "QX", "QY", "QZ"})
	if c.Bool(flagFrames) {
		multibody.UpdateFramePlacements(m, d)
		for i, f := range m.Frames {
			t.AppendRow(placementRow(i, f.Name, d.OMf[i]))
		}
	} else {
		for i := range m.Joints {
			t.AppendRow(placementRow(i, m.Names[i], d.OMi[i]))
		}
	}
	writeTable(c.App.Writer, t)
	return nil
}

func massAction(c *cli.Context) error {
	m, _, err := loadModel(c)
	if err != nil {
		return err
	}
	q, err := configuration(c, m)
	if err != nil {
		return err
	}
	d := multibody.NewData(m)
	multibody.ForwardKinematics(m, d, q)
	multibody.ComputeCompositeInertias(m, d)
	total := d.Ycrb[0]
	com := total.Lever.R3()
	fmt.Fprintf(c.App.Writer, "%s %.6g kg\n%s (%.6g, %.6g, %.6g)\n",
		color.CyanString("mass"), total.Mass.Float(),
		color.CyanString("center of mass"), com.X, com.Y, com.Z)
	return nil
}

func placementRow(i int, name string, p spatial.SE3[scalar.Float]) table.Row {
	pos := p.P.R3()
	rot := p.Quaternion()
	return table.Row{
		i, name,
		round(pos.X), round(pos.Y), round(pos.Z),
		round(rot.Real), round(rot.Imag), round(rot.Jmag), round(rot.Kmag),
	}
}

func writeTable(w io.Writer, t table.Writer) {
	t.SetStyle(table.StyleLight)
	fmt.Fprintln(w, t.Render())
}

func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
