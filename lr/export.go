package lr

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/lrkit/lr/iteratable"
)

// CFSM2GraphViz exports a CFSM to the Graphviz Dot format.
func (c *CFSM) CFSM2GraphViz(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(`digraph {
graph [splines=true, fontname=Helvetica, fontsize=10];
node [shape=Mrecord, style=filled, fontname=Helvetica, fontsize=10];
edge [fontname=Helvetica, fontsize=10];

`)
	c.eachState(func(s *CFSMState) {
		fmt.Fprintf(bw, "s%03d [fillcolor=%s label=\"{%03d | %s}\"]\n",
			s.ID, nodecolor(s), s.ID, forGraphviz(s.items))
	})
	it := c.edges.Iterator()
	for it.Next() {
		edge := it.Value().(*cfsmEdge)
		fmt.Fprintf(bw, "s%03d -> s%03d [label=\"%s\"]\n", edge.from.ID, edge.to.ID,
			escapeGraphviz(edge.label.Name))
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

func nodecolor(state *CFSMState) string {
	if state.Accept {
		return "lightgray"
	}
	return "white"
}

func forGraphviz(iset *iteratable.Set) string {
	var b strings.Builder
	iset.Each(func(x interface{}) {
		b.WriteString(escapeGraphviz(asItem(x).String()))
		b.WriteString("\\l")
	})
	return b.String()
}

var graphvizEscaper = strings.NewReplacer(`"`, `\"`, `{`, `\{`, `}`, `\}`,
	`|`, `\|`, `<`, `\<`, `>`, `\>`, `\`, `\\`)

func escapeGraphviz(s string) string {
	return graphvizEscaper.Replace(s)
}

// GotoTableAsHTML exports a GOTO-table in HTML-format.
func GotoTableAsHTML(lrgen *TableGenerator, w io.Writer) error {
	if lrgen.gototable == nil {
		return fmt.Errorf("GOTO table not yet created, cannot export to HTML")
	}
	return parserTableAsHTML(lrgen, "GOTO", lrgen.gototable, w)
}

// ActionTableAsHTML exports the ACTION-table in HTML-format.
func ActionTableAsHTML(lrgen *TableGenerator, w io.Writer) error {
	if lrgen.actiontable == nil {
		return fmt.Errorf("ACTION table not yet created, cannot export to HTML")
	}
	return parserTableAsHTML(lrgen, "ACTION", lrgen.actiontable, w)
}

func parserTableAsHTML(lrgen *TableGenerator, tname string, table *Table, w io.Writer) error {
	var symvec []*Symbol
	bw := bufio.NewWriter(w)
	bw.WriteString("<html><body>\n")
	fmt.Fprintf(bw, "%s table of size = %d<p>", tname, table.matrix.ValueCount())
	bw.WriteString("<table border=1 cellspacing=0 cellpadding=5>\n")
	bw.WriteString("<tr bgcolor=#cccccc><td></td>\n")
	lrgen.g.EachSymbol(func(A *Symbol) interface{} {
		fmt.Fprintf(bw, "<td>%s</td>", htmlEscaper.Replace(A.Name))
		symvec = append(symvec, A)
		return nil
	})
	bw.WriteString("</tr>\n")
	var td string // table cell
	lrgen.dfa.eachState(func(state *CFSMState) {
		fmt.Fprintf(bw, "<tr><td>state %d</td>\n", state.ID)
		for _, A := range symvec {
			v1, v2 := table.Values(state.ID, A.TokenType())
			if v1 == table.NullValue() {
				td = "&nbsp;"
			} else if v2 == table.NullValue() {
				td = fmt.Sprintf("%d", v1)
			} else {
				td = fmt.Sprintf("%d/%d", v1, v2)
			}
			fmt.Fprintf(bw, "<td>%s</td>\n", td)
		}
		bw.WriteString("</tr>\n")
	})
	bw.WriteString("</table></body></html>\n")
	return bw.Flush()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
