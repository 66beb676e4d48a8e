package layout

// pageAccumulator 收集单页的绘制指令。
type pageAccumulator struct {
	commands []DrawCommand
}

func (p *pageAccumulator) appendText(tr TextRun) {
	p.commands = append(p.commands, DrawCommand{Kind: KindText, Text: &tr})
}

func (p *pageAccumulator) appendLine(ln Line) {
	p.commands = append(p.commands, DrawCommand{Kind: KindLine, Line: &ln})
}

func (p *pageAccumulator) appendImage(img ImageBox) {
	p.commands = append(p.commands, DrawCommand{Kind: KindImage, Image: &img})
}

// pageCollector 按顺序保存所有页面；页面只会追加，不会回退。
type pageCollector struct {
	geo  Geometry
	accs []*pageAccumulator
}

func newPageCollector(geo Geometry) *pageCollector {
	pc := &pageCollector{geo: geo}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	return pc.accs[len(pc.accs)-1]
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:    pc.geo.PageWidth,
			Height:   pc.geo.PageHeight,
			Margin:   pc.geo.Margin,
			Commands: acc.commands,
		}
	}
	return out
}

// flowContext 持有一次布局过程中的游标（当前页 + 纵向位置）。
type flowContext struct {
	geo       Geometry
	collector *pageCollector
	cursorY   float64
}

func newFlowContext(geo Geometry) *flowContext {
	return &flowContext{
		geo:       geo,
		collector: newPageCollector(geo),
		cursorY:   geo.Margin,
	}
}

// ensureSpace 在剩余空间不足 height 时换页，返回是否发生了换页。
func (ctx *flowContext) ensureSpace(height float64) bool {
	if ctx.cursorY+height <= ctx.geo.ContentBottom() {
		return false
	}
	ctx.pageBreak()
	return true
}

func (ctx *flowContext) pageBreak() {
	ctx.collector.newPage()
	ctx.cursorY = ctx.geo.Margin
}

func (ctx *flowContext) advance(dy float64) { ctx.cursorY += dy }

func (ctx *flowContext) acc() *pageAccumulator { return ctx.collector.curr() }
