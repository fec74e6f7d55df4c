package sysinfo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const timeLayout = "2006-01-02 15:04:05"

var sectionTitles = []struct {
	section string
	title   string
	header  string
}{
	{SectionHardware, "HARDWARE CONFIGURATION", "Specification"},
	{SectionSoftware, "SOFTWARE CONFIGURATION", "Version/Details"},
	{SectionTools, "EXTERNAL TOOLS", "Version"},
}

// WriteTable prints the configuration as aligned console sections.
func WriteTable(w io.Writer, info *Info) error {
	rule := strings.Repeat("=", 80)
	if _, err := fmt.Fprintf(w, "\n%s\nHARDWARE AND SOFTWARE CONFIGURATION TABLE\n%s\n", rule, rule); err != nil {
		return err
	}
	for _, s := range sectionTitles {
		fmt.Fprintf(w, "\n%s:\n%s\n", s.title, strings.Repeat("-", 50))
		fmt.Fprintf(w, "%-20s | %s\n", "Component", s.header)
		fmt.Fprintf(w, "%-20s | %s\n", strings.Repeat("-", 20), strings.Repeat("-", 40))
		for _, r := range info.Section(s.section) {
			fmt.Fprintf(w, "%-20s | %s\n", r.Component, r.Value)
		}
	}
	_, err := fmt.Fprintf(w, "\nCollection Time: %s\n%s\n", info.CollectedAt.Format(timeLayout), rule)
	return err
}

// WriteCSV writes one row per component followed by a metadata row.
func WriteCSV(w io.Writer, info *Info) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Configuration Type", "Component", "Specification"})
	for _, r := range info.Rows {
		cw.Write([]string{r.Section, r.Component, r.Value})
	}
	cw.Write([]string{})
	cw.Write([]string{"Metadata", "Collection Time", info.CollectedAt.Format(timeLayout)})
	cw.Flush()
	return cw.Error()
}

var latexEscaper = strings.NewReplacer(`\`, `\textbackslash{}`, "&", `\&`, "_", `\_`, "%", `\%`, "#", `\#`, "$", `\$`)

// WriteLaTeX renders the configuration as a two-column LaTeX table.
func WriteLaTeX(w io.Writer, info *Info) error {
	var b strings.Builder
	b.WriteString("\\begin{table}[htbp]\n\\centering\n")
	b.WriteString("\\caption{Experimental Environment Configuration}\n")
	b.WriteString("\\label{tab:experimental_config}\n")
	b.WriteString("\\begin{tabular}{|l|l|}\n\\hline\n")
	b.WriteString("\\textbf{Component} & \\textbf{Specification} \\\\\n\\hline\n")
	for _, s := range sectionTitles {
		rows := info.Section(s.section)
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\\multicolumn{2}{|c|}{\\textbf{%s}} \\\\\n\\hline\n", latexEscaper.Replace(s.section))
		for _, r := range rows {
			fmt.Fprintf(&b, "%s & %s \\\\\n", latexEscaper.Replace(r.Component), latexEscaper.Replace(r.Value))
		}
		b.WriteString("\\hline\n")
	}
	b.WriteString("\\end{tabular}\n\\end{table}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
