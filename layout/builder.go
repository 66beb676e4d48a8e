package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/vitae/record"
)

// 模板常量（单位 mm），与网页端导出的版式保持一致。
const (
	nameAdvance     = 8.0
	titleDrop       = 2.0
	titleAdvance    = 8.0
	contactAdvance  = 4.0
	contactGap      = 3.0
	ruleWidth       = 0.2
	ruleGap         = 8.0
	photoInsetX     = 8.0
	photoInsetY     = 6.0
	headingAdvance  = 6.0
	sectionReserve  = 20.0
	compactReserve  = 15.0
	rowReserve      = 5.0
	rowAdvance      = 4.0
	sectionGap      = 5.0
	listGap         = 2.0
	entryGap        = 3.0
	subtitleAdvance = 5.0
	detailReserve   = 6.0
	detailIndent    = 5.0
	detailGap       = 2.0
	descriptionGap  = 3.0
	skillsPullback  = 0.7
	underlineDrop   = 0.8
	underlineWidth  = 0.4
)

// Build 将 Record 快照排版为若干固定尺寸的页面。
// 数据问题只会让对应内容被省略，不会返回错误；仅在缺少测量后端时返回错误。
func Build(rec record.Record, opts BuildOptions) (*Result, error) {
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}
	geo := opts.Geometry.withDefaults()
	rec = rec.Normalize()

	b := &builder{
		ctx:    newFlowContext(geo),
		geo:    geo,
		m:      opts.Measurer,
		logger: opts.Logger,
	}
	b.header(rec, opts.Photo)
	b.personalDetails(rec)
	b.socialLinks(rec.CustomLinks)
	b.paragraphSection("PROFILE", sectionReserve, rec.Profile, true)
	b.paragraphSection("OBJECTIVE", sectionReserve, rec.Objective, true)
	b.education(rec.Education)
	b.projects(rec.Projects)
	b.experience(rec.Experience)
	b.paragraphSection("SKILLS", compactReserve, rec.Skills, true)
	b.paragraphSection("LANGUAGES", compactReserve, rec.Languages, false)

	return &Result{
		Pages: b.ctx.collector.pages(),
		Meta:  buildMeta(rec, opts.FileNameTemplate),
	}, nil
}

type builder struct {
	ctx    *flowContext
	geo    Geometry
	m      Measurer
	logger *log.Logger
}

// textStyle 组合字形、字号与颜色。
type textStyle struct {
	style FontStyle
	size  float64
	color Color
}

func (b *builder) face(st textStyle) textFace {
	return textFace{m: b.m, style: st.style, size: st.size}
}

func (b *builder) body() textStyle {
	return textStyle{style: Regular, size: b.geo.BodySize, color: b.geo.BodyColor}
}

// textAt 在 (x, y) 处绘制单行文本并返回其宽度。空文本不产生指令。
func (b *builder) textAt(content string, x, y float64, st textStyle) float64 {
	if content == "" {
		return 0
	}
	w := b.face(st).width(content)
	b.ctx.acc().appendText(TextRun{
		Content:  content,
		X:        x,
		Y:        y,
		Width:    w,
		FontSize: st.size,
		Style:    st.style,
		Color:    st.color,
	})
	return w
}

// text 在当前游标行绘制。
func (b *builder) text(content string, x float64, st textStyle) float64 {
	return b.textAt(content, x, b.ctx.cursorY, st)
}

// underlined 绘制带下划线的链接文本。
func (b *builder) underlined(content string, x float64, st textStyle) float64 {
	w := b.text(content, x, st)
	if w <= 0 {
		return 0
	}
	y := b.ctx.cursorY + underlineDrop
	b.ctx.acc().appendLine(Line{X1: x, Y1: y, X2: x + w, Y2: y, Color: st.color, Width: underlineWidth})
	return w
}

// prefixRun 是与折行文本首行同基线绘制的前缀（标签或项目符号）。
type prefixRun struct {
	content string
	x       float64
	st      textStyle
}

// addText 折行绘制一段文本：所需高度为 行数×行高，绘制前检查换页。
// 高度超过整页可用区域时逐行检查，文本在行边界处跨页。
// 除整段文本的最后一行外，每行两端对齐（段落末行同样对齐，单词行除外）。
func (b *builder) addText(content string, x, maxWidth float64, st textStyle, prefix *prefixRun) {
	face := b.face(st)
	lines := wrapText(content, maxWidth, face)
	if len(lines) == 0 {
		return
	}
	lh := b.geo.LineHeight(st.size)
	required := float64(len(lines)) * lh
	if required > b.geo.ContentHeight() {
		required = lh
	}
	b.ctx.ensureSpace(required)
	if prefix != nil {
		b.text(prefix.content, prefix.x, prefix.st)
	}
	for i, line := range lines {
		b.ctx.ensureSpace(lh)
		justified := i < len(lines)-1
		b.drawWrappedLine(line, x, maxWidth, face, st, justified)
		b.ctx.advance(lh)
	}
	b.ctx.advance(math.Max(1, st.size*0.2))
}

func (b *builder) drawWrappedLine(line wrappedLine, x, maxWidth float64, face textFace, st textStyle, justified bool) {
	if line.content == "" {
		return
	}
	if justified {
		if words := justify(line.content, maxWidth, face); words != nil {
			for _, w := range words {
				b.ctx.acc().appendText(TextRun{
					Content:  w.content,
					X:        x + w.offset,
					Y:        b.ctx.cursorY,
					Width:    w.width,
					FontSize: st.size,
					Style:    st.style,
					Color:    st.color,
				})
			}
			return
		}
	}
	b.ctx.acc().appendText(TextRun{
		Content:  line.content,
		X:        x,
		Y:        b.ctx.cursorY,
		Width:    line.width,
		FontSize: st.size,
		Style:    st.style,
		Color:    st.color,
	})
}

// heading 绘制分节标题（蓝色粗体）。
func (b *builder) heading(title string, reserve float64) {
	b.ctx.ensureSpace(reserve)
	b.text(title, b.geo.Margin, textStyle{style: Bold, size: b.geo.SectionSize, color: b.geo.AccentColor})
	b.ctx.advance(headingAdvance)
}

func (b *builder) header(rec record.Record, photo *Photo) {
	margin := b.geo.Margin
	if rec.FullName != "" {
		b.text(rec.FullName, margin, textStyle{style: Bold, size: b.geo.NameSize, color: b.geo.BodyColor})
		b.ctx.advance(nameAdvance)
	}
	if rec.Title != "" {
		b.textAt(rec.Title, margin, b.ctx.cursorY+titleDrop, textStyle{style: Bold, size: b.geo.TitleSize, color: b.geo.BodyColor})
		b.ctx.advance(titleAdvance)
	}
	b.photo(photo)

	var contact []string
	var phones []string
	if rec.Phone != "" {
		phones = append(phones, "Phone: "+rec.Phone)
	}
	if rec.WhatsApp != "" {
		phones = append(phones, "WhatsApp: "+rec.WhatsApp)
	}
	if len(phones) > 0 {
		contact = append(contact, strings.Join(phones, " | "))
	}
	if rec.Email != "" {
		contact = append(contact, "Email: "+rec.Email)
	}
	for _, line := range contact {
		b.text(line, margin, b.body())
		b.ctx.advance(contactAdvance)
	}
	if len(contact) > 0 {
		b.ctx.advance(contactGap)
	}

	y := b.ctx.cursorY
	b.ctx.acc().appendLine(Line{X1: margin, Y1: y, X2: b.geo.PageWidth - margin, Y2: y, Color: b.geo.RuleColor, Width: ruleWidth})
	b.ctx.advance(ruleGap)
}

// photo 将头像锚定在右上角；格式无法识别时跳过。
func (b *builder) photo(photo *Photo) {
	if photo == nil || len(photo.Data) == 0 {
		return
	}
	format := strings.ToUpper(strings.TrimSpace(photo.Format))
	switch {
	case strings.Contains(format, "PNG"), strings.Contains(format, "SVG"):
		format = "PNG"
	case format == "":
		b.debugf("头像缺少格式信息，已跳过")
		return
	default:
		format = "JPEG"
	}
	size := b.geo.PhotoSize
	b.ctx.acc().appendImage(ImageBox{
		X:      b.geo.PageWidth - b.geo.Margin - size - photoInsetX,
		Y:      b.geo.Margin - photoInsetY,
		Width:  size,
		Height: size,
		Format: format,
		Data:   photo.Data,
	})
}

func (b *builder) personalDetails(rec record.Record) {
	var rows []string
	if rec.DOB != "" {
		rows = append(rows, "Date of Birth: "+rec.DOB)
	}
	if rec.Nationality != "" {
		rows = append(rows, "Nationality: "+rec.Nationality)
	}
	if rec.Religion != "" {
		rows = append(rows, "Religion: "+rec.Religion)
	}
	if rec.License != "" {
		rows = append(rows, "Driving License: "+rec.License)
	}
	if len(rows) == 0 {
		return
	}
	b.heading("PERSONAL DETAILS", sectionReserve)
	for _, row := range rows {
		b.ctx.ensureSpace(rowReserve)
		b.text(row, b.geo.Margin, b.body())
		b.ctx.advance(rowAdvance)
	}
	b.ctx.advance(sectionGap)
}

func (b *builder) socialLinks(links []record.Link) {
	if len(links) == 0 {
		return
	}
	b.heading("SOCIAL LINKS", compactReserve)
	accent := textStyle{style: Regular, size: b.geo.BodySize, color: b.geo.AccentColor}
	for _, link := range links {
		b.ctx.ensureSpace(rowReserve)
		title := link.Title
		if title == "" {
			title = "Link"
		}
		labelWidth := b.text(title+": ", b.geo.Margin, b.body())
		b.underlined(link.URL, b.geo.Margin+labelWidth, accent)
		b.ctx.advance(rowAdvance)
	}
	b.ctx.advance(sectionGap)
}

// paragraphSection 输出只有一段正文的分节（Profile、Objective、Skills、Languages）。
func (b *builder) paragraphSection(title string, reserve float64, content string, trailingGap bool) {
	if content == "" {
		return
	}
	b.heading(title, reserve)
	b.addText(content, b.geo.Margin, b.geo.ContentWidth(), b.body(), nil)
	if trailingGap {
		b.ctx.advance(sectionGap)
	}
}

func (b *builder) education(entries []record.Education) {
	if len(entries) == 0 {
		return
	}
	b.heading("EDUCATION", sectionReserve)
	margin := b.geo.Margin
	for _, edu := range entries {
		b.ctx.ensureSpace(compactReserve)
		if edu.Degree != "" {
			b.text(edu.Degree, margin, textStyle{style: Bold, size: b.geo.SubtitleSize, color: b.geo.BodyColor})
			b.ctx.advance(subtitleAdvance)
		}
		if edu.Institute != "" {
			b.text(edu.Institute, margin, textStyle{style: Italic, size: b.geo.BodySize, color: b.geo.BodyColor})
			b.ctx.advance(rowAdvance)
		}
		if edu.Period != "" {
			b.text(edu.Period, margin, textStyle{style: Regular, size: b.geo.PeriodSize, color: b.geo.MutedColor})
			b.ctx.advance(rowAdvance)
		}
		b.ctx.advance(entryGap)
	}
	b.ctx.advance(listGap)
}

func (b *builder) projects(entries []record.Project) {
	if len(entries) == 0 {
		return
	}
	b.heading("PROJECTS", sectionReserve)
	margin := b.geo.Margin
	boldBody := textStyle{style: Bold, size: b.geo.BodySize, color: b.geo.BodyColor}
	for _, p := range entries {
		b.ctx.ensureSpace(sectionReserve)
		// 标题为空时同样保留标题行的高度
		b.text(p.Title, margin, textStyle{style: Bold, size: b.geo.SubtitleSize, color: b.geo.BodyColor})
		b.ctx.advance(subtitleAdvance)
		if p.Role != "" {
			role := textStyle{style: Italic, size: b.geo.BodySize, color: b.geo.BodyColor}
			label := "Role: "
			b.text(label, margin, boldBody)
			b.text(p.Role, margin+b.face(role).width(label), role)
			b.ctx.advance(rowAdvance)
		}
		if p.Period != "" {
			b.text(p.Period, margin, textStyle{style: Regular, size: b.geo.PeriodSize, color: b.geo.MutedColor})
			b.ctx.advance(rowAdvance)
		}
		if p.Description != "" {
			b.addText(p.Description, margin, b.geo.ContentWidth(), b.body(), nil)
			b.ctx.advance(descriptionGap)
		}
		if p.Skills != "" {
			// 标签宽度按其后正文的字体测量
			label := "Skills: "
			w := b.face(b.body()).width(label)
			b.addText(p.Skills, margin+w, b.geo.ContentWidth()-w, b.body(), &prefixRun{content: label, x: margin, st: boldBody})
			b.ctx.advance(-skillsPullback)
		}
		if p.Link != "" {
			b.ctx.ensureSpace(rowReserve)
			link := textStyle{style: Regular, size: b.geo.BodySize, color: b.geo.AccentColor}
			label := "Link: "
			b.text(label, margin, boldBody)
			b.underlined(p.Link, margin+b.face(link).width(label), link)
			b.ctx.advance(rowAdvance)
		}
		b.ctx.advance(entryGap)
	}
	b.ctx.advance(listGap)
}

func (b *builder) experience(entries []record.Experience) {
	if len(entries) == 0 {
		return
	}
	b.heading("WORK EXPERIENCE", sectionReserve)
	margin := b.geo.Margin
	for _, job := range entries {
		b.ctx.ensureSpace(sectionReserve)
		b.text(job.Title, margin, textStyle{style: Bold, size: b.geo.SubtitleSize, color: b.geo.BodyColor})
		b.ctx.advance(subtitleAdvance)
		if line := companyLine(job.Company, job.Period); line != "" {
			b.text(line, margin, textStyle{style: Italic, size: b.geo.BodySize, color: b.geo.BodyColor})
			b.ctx.advance(rowAdvance)
		}
		for _, detail := range job.Details {
			b.ctx.ensureSpace(detailReserve)
			b.addText(detail, margin+detailIndent, b.geo.ContentWidth()-detailIndent, b.body(),
				&prefixRun{content: "• ", x: margin, st: b.body()})
			b.ctx.advance(detailGap)
		}
		b.ctx.advance(entryGap)
	}
	b.ctx.advance(listGap)
}

func companyLine(company, period string) string {
	switch {
	case company != "" && period != "":
		return company + " — " + period
	case company != "":
		return company
	default:
		return period
	}
}

func buildMeta(rec record.Record, fileNameTemplate string) DocumentMeta {
	title := "Resume"
	if rec.FullName != "" {
		title = rec.FullName + " Resume"
	}
	var keywords []string
	for _, s := range strings.Split(rec.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			keywords = append(keywords, s)
		}
	}
	return DocumentMeta{
		Title:    title,
		Author:   rec.FullName,
		Subject:  rec.Title,
		Creator:  "vitae",
		Keywords: keywords,
		FileName: rec.FileName(fileNameTemplate),
	}
}

func (b *builder) debugf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Debugf(format, args...)
	}
}
