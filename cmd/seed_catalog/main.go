// seed_catalog genera un script SQL que precarga productos desde la lista de medicamentos
// genéricos JanAushadhi (CSV exportado del listado oficial).
//
// Uso: go run ./cmd/seed_catalog [-latin1] [ruta/productos.csv]
// Por defecto lee janaushadhi_products.csv del directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/seed_janaushadhi.sql
package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogRow fila válida del listado.
type catalogRow struct {
	Code     string
	Name     string
	UnitSize string
	MRP      decimal.Decimal
	Group    string
}

// columnas reconocidas en la cabecera (en minúsculas, sin espacios extremos).
var headerAliases = map[string]string{
	"drug code":    "code",
	"drug_code":    "code",
	"generic name": "name",
	"generic_name": "name",
	"unit size":    "unit",
	"unit_size":    "unit",
	"mrp":          "mrp",
	"group name":   "group",
	"group":        "group",
}

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV viene en Windows-1252 (exportado desde Excel)")
	flag.Parse()

	csvPath := "janaushadhi_products.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if *latin1 {
		in = transform.NewReader(f, charmap.Windows1252.NewDecoder())
	}
	rows, skipped, err := parseCatalog(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "seed_janaushadhi.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := writeSQL(w, rows, time.Now().UTC(), uuid.NewString); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos (%d filas descartadas)\n", outPath, len(rows), skipped)
}

// parseCatalog lee el CSV con cabecera. Descarta filas sin código o nombre y MRP inválidos;
// si un código se repite gana la última fila.
func parseCatalog(r io.Reader) ([]catalogRow, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("cabecera: %w", err)
	}
	idx := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if col, ok := headerAliases[key]; ok {
			idx[col] = i
		}
	}
	for _, col := range []string{"code", "name", "mrp"} {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("falta la columna %q en la cabecera", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	byCode := make(map[string]catalogRow)
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		row := catalogRow{
			Code:     field(rec, "code"),
			Name:     field(rec, "name"),
			UnitSize: field(rec, "unit"),
			Group:    field(rec, "group"),
		}
		mrp, err := decimal.NewFromString(strings.ReplaceAll(field(rec, "mrp"), ",", ""))
		if row.Code == "" || row.Name == "" || err != nil || mrp.IsNegative() {
			skipped++
			continue
		}
		row.MRP = mrp.Round(2)
		byCode[row.Code] = row
	}

	rows := make([]catalogRow, 0, len(byCode))
	for _, row := range byCode {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, skipped, nil
}

// writeSQL emite un INSERT por producto; los SKU existentes no se tocan.
func writeSQL(w io.Writer, rows []catalogRow, now time.Time, newID func() string) error {
	ts := now.Format(time.RFC3339)
	if _, err := fmt.Fprintf(w, "-- Catálogo JanAushadhi (%d productos)\n-- Generado %s\n\n", len(rows), ts); err != nil {
		return err
	}
	for _, r := range rows {
		desc := strings.TrimSpace(r.Group + " " + r.UnitSize)
		_, err := fmt.Fprintf(w,
			"INSERT INTO products (id, sku, name, description, category, manufacturer, unit_price, janaushadhi_code, created_at, updated_at)\n"+
				"VALUES ('%s', '%s', '%s', '%s', '%s', 'JanAushadhi', %s, '%s', '%s', '%s')\n"+
				"ON CONFLICT (sku) DO NOTHING;\n",
			newID(), escapeSQL("JA-"+r.Code), escapeSQL(r.Name), escapeSQL(desc), escapeSQL(r.Group),
			r.MRP.StringFixed(2), escapeSQL(r.Code), ts, ts)
		if err != nil {
			return err
		}
	}
	return nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
