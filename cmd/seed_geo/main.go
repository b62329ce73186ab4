// seed_geo genera el script SQL para poblar las tablas states y countries a
// partir del export XML de geografía del sistema host (Geography.xml).
//
// Uso: go run ./cmd/seed_geo [ruta/Geography.xml]
// Por defecto busca Geography.xml en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/003_seed_geo.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type geography struct {
	Countries []country `xml:"country"`
}

type country struct {
	ISOName string  `xml:"isoName,attr"`
	Name    string  `xml:"name,attr"`
	States  []state `xml:"state"`
}

type state struct {
	Abbr string `xml:"abbr,attr"`
	Name string `xml:"name,attr"`
}

func main() {
	xmlPath := "Geography.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var g geography
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&g); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	// Orden estable por nombre ISO para que el script sea reproducible
	sort.Slice(g.Countries, func(i, j int) bool {
		return g.Countries[i].ISOName < g.Countries[j].ISOName
	})

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "003_seed_geo.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Países y estados para resolución de direcciones del feed\n")
	out.WriteString("-- Generado desde Geography.xml\n\n")

	states := 0
	for _, c := range g.Countries {
		if c.ISOName == "" {
			continue
		}
		fmt.Fprintf(out, "INSERT INTO countries (iso_name, name) VALUES ('%s', '%s')\n",
			escapeSQL(strings.ToUpper(c.ISOName)), escapeSQL(c.Name))
		out.WriteString("ON CONFLICT (iso_name) DO UPDATE SET name = EXCLUDED.name;\n")

		for _, s := range c.States {
			if s.Abbr == "" {
				continue
			}
			fmt.Fprintf(out, "INSERT INTO states (country_id, abbr, name)\n")
			fmt.Fprintf(out, "SELECT id, '%s', '%s' FROM countries WHERE iso_name = '%s'\n",
				escapeSQL(s.Abbr), escapeSQL(s.Name), escapeSQL(strings.ToUpper(c.ISOName)))
			out.WriteString("ON CONFLICT (abbr) DO UPDATE SET name = EXCLUDED.name;\n")
			states++
		}
		out.WriteString("\n")
	}

	fmt.Printf("Generado %s: %d países, %d estados\n", outPath, len(g.Countries), states)
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
