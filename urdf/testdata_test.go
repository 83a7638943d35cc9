package urdf

const unitInertialXML = `<inertial><origin xyz="0 0 0"/><mass value="1"/>` +
	`<inertia ixx="0.01" ixy="0" ixz="0" iyy="0.01" iyz="0" izz="0.01"/></inertial>`

// chainURDF is root -> revolute(Z) -> link1 -> fixed -> link2 -> prismatic(X) -> link3.
const chainURDF = `<?xml version="1.0"?>
<robot name="chain">
  <link name="root"/>
  <link name="link1">` + unitInertialXML + `</link>
  <link name="link2">
    <inertial>
      <origin xyz="0 0 0.1"/>
      <mass value="2"/>
      <inertia ixx="0.02" ixy="0" ixz="0" iyy="0.02" iyz="0" izz="0.02"/>
    </inertial>
    <collision name="plate">
      <origin xyz="0 0 0.05"/>
      <geometry><box size="0.1 0.2 0.3"/></geometry>
    </collision>
  </link>
  <link name="link3">` + unitInertialXML + `
    <collision>
      <geometry><cylinder radius="0.05" length="0.4"/></geometry>
    </collision>
  </link>
  <joint name="j1" type="revolute">
    <parent link="root"/>
    <child link="link1"/>
    <origin xyz="0 0 0.3" rpy="0 0 0"/>
    <axis xyz="0 0 1"/>
    <limit effort="10" velocity="2" lower="-1.5" upper="1.5"/>
  </joint>
  <joint name="weld" type="fixed">
    <parent link="link1"/>
    <child link="link2"/>
    <origin xyz="0 0 0.5"/>
  </joint>
  <joint name="j2" type="prismatic">
    <parent link="link2"/>
    <child link="link3"/>
    <origin xyz="0.2 0 0"/>
    <axis xyz="1 0 0"/>
    <limit effort="5" velocity="0.5" lower="0" upper="0.3"/>
  </joint>
</robot>`
