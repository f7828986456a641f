// Package pdf genera el reporte de ejecución de una orden de transformación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código de orden + plantilla │ Estado + fechas       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ENTRADAS: Ítem | Planeado | Consumido | C.Unit | Total      │
//	│  SALIDAS:  Ítem | Producido | Merma | C.Unit | Asignado      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Entradas / Salidas / Merma / Desecho / Varianza    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TRAZABILIDAD: Entrada → Salida | Cantidad | Costo           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
)

var _ transformation.ReportGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 160, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa transformation.ReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// ExecutionReport genera el PDF de una orden ejecutada y devuelve sus bytes.
func (g *MarotoPDFGenerator) ExecutionReport(data transformation.ReportData) ([]byte, error) {
	if data.Order == nil {
		return nil, fmt.Errorf("pdf: orden requerida")
	}
	o := data.Order
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de transformación "+o.Code, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(o, data.Template))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("ENTRADAS CONSUMIDAS"))
	m.AddRows(tableHeaderRow("Ítem", "Planeado", "Consumido", "Costo unit.", "Total"))
	for _, in := range o.Inputs {
		m.AddRows(tableRow(
			itemLabel(data.Items, in.ItemID),
			in.PlannedQuantity.StringFixed(2),
			in.ConsumedQuantity.StringFixed(2),
			money(in.UnitCost),
			money(in.TotalCost),
		))
	}

	m.AddRows(row.New(3))
	m.AddRows(sectionTitle("SALIDAS PRODUCIDAS"))
	m.AddRows(tableHeaderRow("Ítem", "Producido", "Merma", "Costo unit.", "Asignado"))
	for _, out := range o.Outputs {
		label := itemLabel(data.Items, out.ItemID)
		if out.IsScrap {
			label += " (desecho)"
		}
		m.AddRows(tableRow(
			label,
			out.ProducedQuantity.StringFixed(2),
			out.WastedQuantity.StringFixed(2),
			money(out.AllocatedCostPerUnit),
			money(out.TotalAllocatedCost),
		))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(o))

	if len(data.Lineage) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("TRAZABILIDAD"))
		m.AddRows(tableHeaderRow("Entrada → Salida", "", "Cant. usada", "Cant. salida", "Costo"))
		for _, r := range lineageRows(o, data.Items, data.Lineage) {
			m.AddRows(r)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(o *entity.TransformationOrder, t *entity.TransformationTemplate) core.Row {
	templateName := "—"
	if t != nil {
		templateName = t.Code + " · " + t.Name
	}
	executed := "—"
	if o.ExecutionDate != nil {
		executed = o.ExecutionDate.Format("02/01/2006 15:04")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("ORDEN DE TRANSFORMACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(o.Code, props.Text{Style: fontstyle.Bold, Size: 13, Top: 6}),
			text.New("Plantilla: "+templateName, props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(o.Status, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Ejecutada: "+executed, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Bodega: "+o.WarehouseID, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))
}

// tableHeaderRow: primera columna ancha (4) y cuatro numéricas de 2.
func tableHeaderRow(labels ...string) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, label := range labels {
		size, a := 2, align.Right
		if i == 0 {
			size, a = 4, align.Left
		}
		cols = append(cols, col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func tableRow(values ...string) core.Row {
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		size, a := 2, align.Right
		if i == 0 {
			size, a = 4, align.Left
		}
		cols = append(cols, col.New(size).Add(text.New(v, props.Text{
			Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func totalsRow(o *entity.TransformationOrder) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	varianceColor := colorPrimary
	if !o.CostVariance.IsZero() {
		varianceColor = colorDanger
	}
	return row.New(30).Add(
		col.New(6),
		col.New(3).Add(
			label("Costo entradas:"),
			label("Costo salidas:"),
			label("Costo de merma:"),
			label("Desecho castigado:"),
			text.New("Varianza:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: varianceColor, Right: 2,
			}),
		),
		col.New(3).Add(
			value(money(o.TotalInputCost)),
			value(money(o.TotalOutputCost)),
			value(money(o.TotalWasteCost)),
			value(money(o.ScrapCost)),
			text.New(money(o.CostVariance), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: varianceColor, Right: 1,
			}),
		),
	)
}

func lineageRows(o *entity.TransformationOrder, items map[string]*entity.Item, edges []*entity.LineageEdge) []core.Row {
	rows := make([]core.Row, 0, len(edges))
	for _, e := range edges {
		in, out := "—", "—"
		if l := o.FindInput(e.InputLineID); l != nil {
			in = itemLabel(items, l.ItemID)
		}
		if l := o.FindOutput(e.OutputLineID); l != nil {
			out = itemLabel(items, l.ItemID)
		}
		rows = append(rows, tableRow(
			in+" → "+out,
			"",
			e.InputQuantityUsed.StringFixed(2),
			e.OutputQuantityFrom.StringFixed(2),
			money(e.CostAttributed),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func itemLabel(items map[string]*entity.Item, id string) string {
	if it, ok := items[id]; ok && it != nil {
		return it.Code + " " + it.Name
	}
	return id
}

// money formatea con dos decimales y puntos de miles. Ej: 1234567.5 → "$1.234.567,50"
func money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0).String()
	cents := d.Sub(d.Truncate(0)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents == 100 {
		whole = d.Truncate(0).Add(decimal.NewFromInt(1)).String()
		cents = 0
	}
	return fmt.Sprintf("%s$%s,%02d", sign, thousands(whole), cents)
}

// thousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func thousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
