package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/geometry"
	"github.com/Carmen-Shannon/oxy-trace/engine/instance"
	"github.com/Carmen-Shannon/oxy-trace/engine/light"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/record"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// demo is a small animated scene: a row of identical cubes that share one group,
// and a grid of instance handles alternating between two instance sources.
type demo struct {
	reg     scene.SceneRegistry
	cubes   []record.Record
	sources []*geometry.Group
	handles []instance.Handle
	grid    int
	time    float32
	frame   int
}

func cubeMesh(name string, size float32) record.Mesh {
	s := size / 2
	return record.Mesh{
		Name: name,
		Positions: [][3]float32{
			{-s, -s, -s}, {s, -s, -s}, {s, s, -s}, {-s, s, -s},
			{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s},
		},
		Submeshes: []record.Submesh{{Indices: []uint32{
			0, 2, 1, 0, 3, 2,
			4, 5, 6, 4, 6, 7,
			0, 1, 5, 0, 5, 4,
			3, 7, 6, 3, 6, 2,
			0, 4, 7, 0, 7, 3,
			1, 2, 6, 1, 6, 5,
		}}},
	}
}

func newDemo(reg scene.SceneRegistry, table material.Table, grid int) (*demo, error) {
	d := &demo{reg: reg, grid: max(grid, 1)}
	paint := &material.StaticHostMaterial{
		MaterialName: "Paint",
		Shader:       material.FallbackShaderName,
		Floats:       map[string]float32{"_Metallic": 0.2},
		Colors:       map[string][4]float32{"_Color": {0.8, 0.3, 0.2, 1}},
	}

	for i := range 4 {
		r, err := record.NewRecord(cubeMesh("cube", 1), []material.HostMaterial{paint},
			record.WithName(fmt.Sprintf("cube-%d", i)),
			record.WithTransform(mgl32.Translate3D(float32(i)*2, 0, -4)),
			record.WithMaterialTable(table),
		)
		if err != nil {
			return nil, err
		}
		if _, err := reg.RegisterRecord(r); err != nil {
			return nil, err
		}
		d.cubes = append(d.cubes, r)
	}

	for i, size := range []float32{0.5, 0.25} {
		r, err := record.NewRecord(cubeMesh("source", size), []material.HostMaterial{paint},
			record.WithName(fmt.Sprintf("source-%d", i)),
			record.WithMaterialTable(table),
		)
		if err != nil {
			return nil, err
		}
		g, err := reg.Instances().RegisterSource(r)
		if err != nil {
			return nil, err
		}
		d.sources = append(d.sources, g)
	}

	for i := range d.grid * d.grid {
		h := reg.Instances().NewHandle(
			instance.WithParent(d.sources[i%len(d.sources)]),
			instance.WithTransform(d.gridTransform(i, 0)),
		)
		if err := h.Enable(); err != nil {
			return nil, err
		}
		d.handles = append(d.handles, h)
	}

	reg.Lights().Add(light.NewLight(light.LightTypeDirectional, light.WithForward(0.3, -1, 0.2), light.WithIntensity(3)))
	reg.Lights().Add(light.NewLight(light.LightTypePoint, light.WithPosition(0, 4, 0), light.WithColor(1, 0.9, 0.7), light.WithIntensity(20)))
	return d, nil
}

func (d *demo) gridTransform(i int, t float32) mgl32.Mat4 {
	x := float32(i%d.grid) - float32(d.grid)/2
	z := float32(i/d.grid) - float32(d.grid)/2
	y := 0.5 * math32.Sin(t*2+x*0.5+z*0.5)
	return common.ModelMatrix(mgl32.Vec3{x, y, z}, mgl32.Vec3{0, t, 0}, mgl32.Vec3{1, 1, 1})
}

// tick mutates the scene the way a host scene graph would between frames.
func (d *demo) tick(dt float32) {
	d.time += dt
	d.frame++

	for i, h := range d.handles {
		_ = h.SetTransform(d.gridTransform(i, d.time))
	}

	if d.frame%120 == 0 && len(d.handles) > 0 {
		h := d.handles[(d.frame/120)%len(d.handles)]
		if h.Enabled() {
			_ = h.Disable()
		} else {
			_ = h.Enable()
		}
	}

	if d.frame%90 == 0 && len(d.handles) > 1 {
		h := d.handles[(d.frame/90)%len(d.handles)]
		next := d.sources[(d.frame/90)%len(d.sources)]
		_ = h.SetParent(next)
	}

	if d.frame%300 == 0 {
		c := d.cubes[(d.frame/300)%len(d.cubes)]
		_ = c.EditSubmesh(0, func(sm *material.SubmeshMaterial) {
			sm.Roughness = 0.5 + 0.5*math32.Sin(d.time)
		})
		_ = d.reg.NotifyMaterialChanged(c)
	}

	if d.frame%60 == 0 {
		c := d.cubes[0]
		_ = d.reg.SetRecordTransform(c, mgl32.Translate3D(0, math32.Sin(d.time), -4))
	}
}
