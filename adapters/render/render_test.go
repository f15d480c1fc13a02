package render

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/errors"
	"chartcraft/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCompiler struct {
	mock.Mock
}

func (m *mockCompiler) Name() string { return "mock" }

func (m *mockCompiler) Compile(ctx context.Context, source string) (ports.DiagramOutput, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(ports.DiagramOutput), args.Error(1)
}

func (m *mockCompiler) Close() error { return nil }

func kind(t *testing.T, family visual.Family, slug string) visual.Kind {
	t.Helper()
	k, err := visual.Default().Lookup(family, slug)
	require.NoError(t, err)
	return k
}

func TestChartConfigMultiSeries(t *testing.T) {
	k := kind(t, visual.FamilyChart, "line")
	cfg := BuildChartConfig(k, grid.Transform(grid.Seed(), k.Shape))

	assert.Equal(t, "line", cfg.Type)
	assert.Equal(t, "Data Visualization (Line Chart)", cfg.Options.Plugins.Title.Text)
	assert.Equal(t, "top", cfg.Options.Plugins.Legend.Position)
	require.NotNil(t, cfg.Options.Scales)
	assert.True(t, cfg.Options.Scales.Y.BeginAtZero)

	require.Len(t, cfg.Data.Datasets, 2)
	first := cfg.Data.Datasets[0]
	assert.Equal(t, "2023", first.Label)
	assert.Equal(t, []float64{65, 8, 90, 81}, first.Data)
	assert.Equal(t, 2, first.BorderWidth)
	assert.Equal(t, 0.1, *first.Tension)
	assert.False(t, *first.Fill)
	assert.Equal(t, visual.PaletteColor(1).Border, cfg.Data.Datasets[1].BorderColor)
}

func TestChartConfigBarStyle(t *testing.T) {
	k := kind(t, visual.FamilyChart, "bar")
	cfg := BuildChartConfig(k, grid.Transform(grid.Seed(), k.Shape))
	d := cfg.Data.Datasets[0]
	assert.Equal(t, 1, d.BorderWidth)
	assert.Equal(t, 0.0, *d.Tension)
	assert.True(t, *d.Fill)
}

func TestChartConfigRadialKindsHaveNoScales(t *testing.T) {
	tests := []struct {
		slug   string
		scales bool
	}{
		{"pie", false},
		{"doughnut", false},
		{"polarArea", false},
		{"radar", true},
		{"bar", true},
		{"line", true},
	}
	for _, tt := range tests {
		k := kind(t, visual.FamilyChart, tt.slug)
		cfg := BuildChartConfig(k, grid.Transform(grid.Seed(), k.Shape))
		assert.Equal(t, tt.scales, cfg.Options.Scales != nil, tt.slug)
	}
	assert.Equal(t, "Data Visualization (PolarArea Chart)", ChartTitleText("polarArea"))
}

func TestChartConfigSingleSeriesSliceColours(t *testing.T) {
	k := kind(t, visual.FamilyChart, "pie")
	cfg := BuildChartConfig(k, grid.Transform(grid.Seed(), k.Shape))

	require.Len(t, cfg.Data.Datasets, 1)
	d := cfg.Data.Datasets[0]
	assert.Empty(t, d.Label)
	assert.Equal(t, []float64{65, 8, 90, 81}, d.Data)
	bg := d.BackgroundColor.([]string)
	require.Len(t, bg, 4)
	for j := range bg {
		assert.Equal(t, visual.PaletteColor(j).Background, bg[j])
	}

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tension", "single-series datasets carry no line styling")
}

func TestPaletteStableAcrossRerenders(t *testing.T) {
	rows := [][]string{{"", "a"}}
	for i := 0; i < 8; i++ {
		rows = append(rows, []string{fmt.Sprintf("s%d", i), "1"})
	}
	g := grid.FromRows(rows)
	k := kind(t, visual.FamilyChart, "bar")
	m := NewMount("chart")
	a := NewChartAdapter()

	first, err := a.Render(context.Background(), m, Input{Kind: k, Grid: g})
	require.NoError(t, err)
	second, err := a.Render(context.Background(), m, Input{Kind: k, Grid: g})
	require.NoError(t, err)

	c1 := first.Payload.(ChartConfig).Data.Datasets
	c2 := second.Payload.(ChartConfig).Data.Datasets
	require.Len(t, c1, 8)
	for i := range c1 {
		assert.Equal(t, visual.PaletteColor(i%6).Background, c1[i].BackgroundColor)
		assert.Equal(t, c1[i].BackgroundColor, c2[i].BackgroundColor)
	}
	assert.Equal(t, c1[0].BackgroundColor, c1[6].BackgroundColor)
}

func TestMountDestroysBeforeCreate(t *testing.T) {
	m := NewMount("chart")
	var sawEmpty bool
	first := m.replace(func() *Instance { return &Instance{Kind: "bar"} })
	second := m.replace(func() *Instance {
		sawEmpty = m.current == nil && first.Destroyed()
		return &Instance{Kind: "line"}
	})

	assert.True(t, sawEmpty, "previous instance must be gone before the next is built")
	assert.True(t, first.Destroyed())
	assert.False(t, second.Destroyed())
	assert.Equal(t, second, m.Current())
	assert.Equal(t, first.Generation+1, second.Generation)

	m.Clear()
	assert.Nil(t, m.Current())
	assert.True(t, second.Destroyed())
}

func TestMountsRegistry(t *testing.T) {
	r := NewMounts()
	a := r.Get("s1/chart")
	assert.Same(t, a, r.Get("s1/chart"))
	r.Get("s2/chart")
	r.Drop("s1/")
	assert.NotSame(t, a, r.Get("s1/chart"))
}

func TestMountsSweepDropsIdleMounts(t *testing.T) {
	r := NewMounts()
	stale := r.Get("s1/chart/bar")
	inst := stale.replace(func() *Instance { return &Instance{Kind: "bar"} })
	time.Sleep(20 * time.Millisecond)
	r.Get("s2/chart/bar").replace(func() *Instance { return &Instance{Kind: "bar"} })

	assert.Equal(t, 1, r.Sweep(10*time.Millisecond))
	assert.Equal(t, 1, r.Len())
	assert.True(t, inst.Destroyed())
	assert.NotSame(t, stale, r.Get("s1/chart/bar"))
}

func TestDiagramRenderSuccess(t *testing.T) {
	ctx := context.Background()
	c := new(mockCompiler)
	c.On("Compile", mock.Anything, "graph TD\nA-->B").Return(ports.DiagramOutput{SVG: "<svg/>"}, nil)

	a := NewDiagramAdapter(visual.FamilyFlow, c)
	m := NewMount("flow")
	inst, err := a.Render(ctx, m, Input{Kind: kind(t, visual.FamilyFlow, "flowchart"), Source: "graph TD\nA-->B"})
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", inst.SVG)
	assert.False(t, inst.Failed())
	c.AssertExpectations(t)
}

func TestDiagramRenderFailureLeavesNoSVG(t *testing.T) {
	ctx := context.Background()
	c := new(mockCompiler)
	c.On("Compile", mock.Anything, "classDiagram\nclass A").Return(ports.DiagramOutput{SVG: "<svg>old</svg>"}, nil).Once()
	c.On("Compile", mock.Anything, "classDiagram\nA <|-- ").
		Return(ports.DiagramOutput{}, errors.RenderFailed("diagram compile failed", fmt.Errorf("Parse error on line 2"))).Once()

	a := NewDiagramAdapter(visual.FamilyDiagram, c)
	m := NewMount("diagram")
	k := kind(t, visual.FamilyDiagram, "class")

	ok, err := a.Render(ctx, m, Input{Kind: k, Source: "classDiagram\nclass A"})
	require.NoError(t, err)
	bad, err := a.Render(ctx, m, Input{Kind: k, Source: "classDiagram\nA <|-- "})
	require.NoError(t, err)

	assert.True(t, ok.Destroyed())
	assert.Empty(t, bad.SVG)
	assert.Equal(t, "Error rendering diagram: Parse error on line 2", bad.Error)
	assert.Equal(t, bad, m.Current())
	c.AssertNumberOfCalls(t, "Compile", 2)
}

func TestDiagramRenderBlankSourceFails(t *testing.T) {
	k := kind(t, visual.FamilyDiagram, "class")
	m := NewMount("d")
	a := NewDiagramAdapter(visual.FamilyDiagram, NewClientCompiler())

	for _, source := range []string{"", "   \n"} {
		inst, err := a.Render(context.Background(), m, Input{Kind: k, Source: source})
		require.NoError(t, err)
		assert.True(t, inst.Failed())
		assert.Equal(t, DiagramErrorPrefix+"diagram source is empty", inst.Error)
		assert.Empty(t, inst.SVG)
		assert.False(t, inst.ClientRender)
		assert.Equal(t, source, inst.Source)
	}
}

func TestDiagramAdapterRejectsOtherFamilies(t *testing.T) {
	a := NewDiagramAdapter(visual.FamilyDiagram, NewClientCompiler())
	_, err := a.Render(context.Background(), NewMount("d"), Input{Kind: kind(t, visual.FamilyFlow, "mindmap")})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestClientCompiler(t *testing.T) {
	c := NewClientCompiler()
	out, err := c.Compile(context.Background(), "sequenceDiagram\nA->>B: hi")
	require.NoError(t, err)
	assert.True(t, out.ClientRender)
	assert.Empty(t, out.SVG)

	for _, src := range []string{
		"---\ntitle: Orders\n---\nflowchart LR\n  A-->B",
		"xychart-beta\n  x-axis [a, b]\n  bar [1, 2]",
		"C4Container\n  title Shop",
	} {
		out, err = c.Compile(context.Background(), src)
		require.NoError(t, err, src)
		assert.Equal(t, src, out.Source)
	}

	_, err = c.Compile(context.Background(), "sequenceDiagarm\nA->>B: hi")
	assert.Equal(t, errors.CodeRenderFailed, errors.GetCode(err))
	_, err = c.Compile(context.Background(), "")
	assert.Error(t, err)
}

func TestSharedCompilerInitializesOnce(t *testing.T) {
	require.NoError(t, ResetSharedCompiler())
	defer ResetSharedCompiler()

	var mu sync.Mutex
	inits := 0
	factory := func() (ports.DiagramCompiler, error) {
		mu.Lock()
		inits++
		mu.Unlock()
		return NewClientCompiler(), nil
	}

	var wg sync.WaitGroup
	results := make([]ports.DiagramCompiler, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := SharedCompiler(factory)
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, inits)
	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}

func TestBuildFigureSamples(t *testing.T) {
	tests := []struct {
		slug  string
		trace string
	}{
		{"surface", "surface"},
		{"contour", "surface"},
		{"mesh", "mesh3d"},
		{"network", "scatter3d"},
		{"scatter", "scatter3d"},
		{"bar", "scatter3d"},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			fig, err := BuildFigure(kind(t, visual.FamilyPlot3D, tt.slug), nil)
			require.NoError(t, err)
			require.NotEmpty(t, fig.Data)
			assert.Equal(t, tt.trace, fig.Data[0]["type"])
			assert.Equal(t, 500, fig.Layout.Height)
			assert.Equal(t, "Z Axis", fig.Layout.Scene.ZAxis.Title)
		})
	}
}

func TestBuildFigureSurfaceFromGrid(t *testing.T) {
	fig, err := BuildFigure(kind(t, visual.FamilyPlot3D, "surface"), grid.Seed())
	require.NoError(t, err)
	assert.Equal(t, "3D Surface Chart", fig.Layout.Title)
	assert.Equal(t, [][]float64{{65, 8, 90, 81}, {219, 48, 40, 19}}, fig.Data[0]["z"])
	assert.Equal(t, 8.0, fig.Data[0]["cmin"])
	assert.Equal(t, 219.0, fig.Data[0]["cmax"])
}

func TestBuildFigureBarFromGrid(t *testing.T) {
	fig, err := BuildFigure(kind(t, visual.FamilyPlot3D, "bar"), grid.Seed())
	require.NoError(t, err)
	require.Len(t, fig.Data, 2)
	assert.Equal(t, "2024", fig.Data[1]["name"])
	zs := fig.Data[0]["z"].([]interface{})
	assert.Len(t, zs, 12)
	assert.Equal(t, 65.0, zs[1])
}

func TestBuildFigureUnknownKind(t *testing.T) {
	_, err := BuildFigure(visual.Kind{Family: visual.FamilyPlot3D, Slug: "pie"}, nil)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(NewChartAdapter(), NewPlot3DAdapter())
	inst, err := reg.Render(context.Background(), NewMount("x"), Input{Kind: kind(t, visual.FamilyPlot3D, "mesh")})
	require.NoError(t, err)
	assert.Equal(t, visual.FamilyPlot3D, inst.Family)

	_, err = reg.Render(context.Background(), NewMount("x"), Input{Kind: kind(t, visual.FamilyDiagram, "class")})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestRenderPNGIsOpaque(t *testing.T) {
	r := NewRasterizer(400, 300)
	for _, slug := range []string{"bar", "line", "pie", "doughnut", "polarArea", "radar"} {
		t.Run(slug, func(t *testing.T) {
			k := kind(t, visual.FamilyChart, slug)
			var buf bytes.Buffer
			require.NoError(t, r.RenderPNG(&buf, k, grid.Transform(grid.Seed(), k.Shape)))
			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assertOpaque(t, img)
			assert.Equal(t, 400, img.Bounds().Dx())
		})
	}
}

func TestRenderPNGRejectsEmptyData(t *testing.T) {
	k := kind(t, visual.FamilyChart, "bar")
	empty := grid.FromRows([][]string{{"", "a"}, {"x", "0"}})
	err := NewRasterizer(400, 300).RenderPNG(&bytes.Buffer{}, k, grid.Transform(empty, k.Shape))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestFlattenOnWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 1, color.NRGBA{R: 255, A: 128})

	var in, out bytes.Buffer
	require.NoError(t, png.Encode(&in, src))
	require.NoError(t, FlattenPNG(&out, &in))

	img, err := png.Decode(&out)
	require.NoError(t, err)
	assertOpaque(t, img)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "transparent pixels become white")
	r, g, _, _ = img.At(1, 1).RGBA()
	assert.Greater(t, r, g, "half-transparent red stays reddish")
}

func TestFlattenScalesHugeImages(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, MaxRasterSide*2, 10))
	out := FlattenOnWhite(big)
	assert.Equal(t, MaxRasterSide, out.Bounds().Dx())
	assert.Equal(t, 5, out.Bounds().Dy())
}

func TestFlattenPNGRejectsGarbage(t *testing.T) {
	err := FlattenPNG(&bytes.Buffer{}, bytes.NewReader([]byte("not a png")))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

// pngHeader is a PNG holding only a signature and an IHDR chunk for a
// width x height 8-bit grayscale image.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestFlattenPNGRejectsOversizedUploads(t *testing.T) {
	tests := []struct {
		name   string
		upload []byte
	}{
		{"huge dimensions", pngHeader(16000, 16000)},
		{"one very long side", pngHeader(MaxRasterPixels+1, 1)},
		{"too many bytes", make([]byte, MaxUploadBytes+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := FlattenPNG(&out, bytes.NewReader(tt.upload))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.Zero(t, out.Len())
		})
	}

	_, err := png.DecodeConfig(bytes.NewReader(pngHeader(16000, 16000)))
	require.NoError(t, err, "the header alone must describe the image")
}

func TestRasterFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "chart-1700000000123.png", RasterFilename(now))
}

func assertOpaque(t *testing.T, img image.Image) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				t.Fatalf("pixel (%d,%d) has alpha %d", x, y, a)
			}
		}
	}
}
