package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ansel1/merry"
	"github.com/fpawel/netmass/calc"
	"github.com/fpawel/netmass/config"
	"github.com/fpawel/netmass/internal/pkg"
	"github.com/fpawel/netmass/internal/pkg/must"
	"github.com/fpawel/netmass/report"
	"github.com/fpawel/netmass/schema"
	"github.com/powerman/structlog"
)

var log = structlog.New()

func main() {
	pkg.InitLog()

	configFile := flag.String("c", "netmass.yaml", "файл конфигурации")
	rowsFile := flag.String("r", "", "файл строк таблицы, JSON")
	validateOnly := flag.Bool("validate", false, "проверить конфигурацию и выйти")
	jsonOut := flag.Bool("json", false, "вывести отчёт в JSON")
	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		fatal(err)
	}
	if *validateOnly {
		log.Info("конфигурация в порядке", "file", *configFile)
		return
	}

	var rows []schema.Row
	if *rowsFile != "" {
		data, err := os.ReadFile(*rowsFile)
		if err != nil {
			fatal(err)
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			fatal(merry.Prepend(err, *rowsFile))
		}
	}

	results := calc.EvalTable(log, c.Table, rows)
	sections, err := report.Build(c.Sample(c.NetValues(results)), c.Plan)
	if err != nil {
		fatal(err)
	}

	if *jsonOut {
		fmt.Println(string(must.MarshalJsonIndent(sections, "", "  ")))
		return
	}
	printRows(c, results)
	printSections(sections)
}

func printRows(c config.Config, results []calc.Result) {
	for i, r := range results {
		fmt.Printf("строка %d\n", i+1)
		for _, col := range c.Table.Columns {
			v := r.Values[col.Key]
			if v == nil {
				continue
			}
			cell := formatCell(col, v)
			if tags := r.Formatting[col.Key]; len(tags) > 0 {
				cell += " [" + strings.Join(tags, " ") + "]"
			}
			fmt.Printf("\t%s: %s\n", col.Key, cell)
		}
	}
}

func formatCell(col schema.Column, v any) string {
	if n, ok := v.(float64); ok {
		precision := 2
		if col.Decimals != nil {
			precision = *col.Decimals
		}
		return pkg.FormatFloat(n, precision)
	}
	return fmt.Sprintf("%v", v)
}

func printSections(sections report.Sections) {
	for _, sect := range sections {
		fmt.Println(sect.Name)
		for _, p := range sect.Params {
			fmt.Printf("\t%s:", p.Name)
			for _, v := range p.Values {
				fmt.Print(" " + formatValue(v))
			}
			fmt.Println()
		}
	}
}

func formatValue(v *report.Value) string {
	switch {
	case !v.Validated:
		return "-"
	case v.Valid:
		return v.Value
	}
	return v.Value + "!"
}

func fatal(err error) {
	log.PrintErr(err)
	if s := pkg.FormatMerryStacktrace(err, "\n"); s != "" {
		fmt.Fprintln(os.Stderr, s)
	}
	os.Exit(1)
}
