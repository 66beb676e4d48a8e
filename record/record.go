// Package record 定义简历数据（Record）及其在表单边界上的规范化与状态迁移。
//
// Record 是值类型：所有迁移函数都返回新值，不修改入参，布局引擎可以放心持有快照。
package record

import (
	"encoding/json"
	"strings"
)

// Record 保存一位候选人的全部简历数据，列表顺序即展示顺序。
type Record struct {
	FullName    string `json:"fullName,omitempty"`
	Title       string `json:"title,omitempty"`
	Phone       string `json:"phone,omitempty"`
	WhatsApp    string `json:"whatsapp,omitempty"`
	Email       string `json:"email,omitempty"`
	Photo       string `json:"photo,omitempty"` // data URI、http(s) 地址或文件路径
	Profile     string `json:"profile,omitempty"`
	Objective   string `json:"objective,omitempty"`
	Skills      string `json:"skills,omitempty"`
	Languages   string `json:"languages,omitempty"`
	DOB         string `json:"dob,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Religion    string `json:"religion,omitempty"`
	License     string `json:"license,omitempty"`

	Education   []Education  `json:"education,omitempty"`
	Experience  []Experience `json:"experience,omitempty"`
	Projects    []Project    `json:"projects,omitempty"`
	CustomLinks []Link       `json:"customLinks,omitempty"`
}

// Education 是一条教育经历。
type Education struct {
	Institute string `json:"institute,omitempty"`
	Degree    string `json:"degree,omitempty"`
	Period    string `json:"period,omitempty"`
}

// IsZero reports whether every field is blank.
func (e Education) IsZero() bool {
	return blank(e.Institute) && blank(e.Degree) && blank(e.Period)
}

// Experience 是一段工作经历，Details 为要点列表。
type Experience struct {
	Title   string   `json:"title,omitempty"`
	Company string   `json:"company,omitempty"`
	Period  string   `json:"period,omitempty"`
	Details []string `json:"details,omitempty"`
}

// IsZero reports whether the entry carries no visible content.
func (e Experience) IsZero() bool {
	if !blank(e.Title) || !blank(e.Company) || !blank(e.Period) {
		return false
	}
	for _, d := range e.Details {
		if !blank(d) {
			return false
		}
	}
	return true
}

// Project 是一个项目条目。
type Project struct {
	Title       string `json:"title,omitempty"`
	Role        string `json:"role,omitempty"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
	Skills      string `json:"skills,omitempty"`
	Link        string `json:"link,omitempty"`
}

// UnmarshalJSON accepts the legacy "Link" key written by older form versions
// and folds it into the canonical "link" field.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var aux struct {
		plain
		LegacyLink string `json:"Link"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Project(aux.plain)
	if blank(p.Link) && !blank(aux.LegacyLink) {
		p.Link = aux.LegacyLink
	}
	return nil
}

// IsZero reports whether every field is blank.
func (p Project) IsZero() bool {
	return blank(p.Title) && blank(p.Role) && blank(p.Period) &&
		blank(p.Description) && blank(p.Skills) && blank(p.Link)
}

// Link 是一条自定义社交链接。
type Link struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// IsZero reports whether the link has no URL. A title without a URL renders nothing useful.
func (l Link) IsZero() bool { return blank(l.URL) }

// Default 返回表单初始状态：每个列表各有一条空白条目。
func Default() Record {
	return Record{
		Education:  []Education{{}},
		Experience: []Experience{{Details: []string{""}}},
		Projects:   []Project{{}},
	}
}

// Normalize 返回去除首尾空白、丢弃空白条目后的副本。
// 布局引擎只消费规范化后的数据，因此空字段与空列表不会产生任何输出。
func (r Record) Normalize() Record {
	out := Record{
		FullName:    strings.TrimSpace(r.FullName),
		Title:       strings.TrimSpace(r.Title),
		Phone:       strings.TrimSpace(r.Phone),
		WhatsApp:    strings.TrimSpace(r.WhatsApp),
		Email:       strings.TrimSpace(r.Email),
		Photo:       strings.TrimSpace(r.Photo),
		Profile:     strings.TrimSpace(r.Profile),
		Objective:   strings.TrimSpace(r.Objective),
		Skills:      strings.TrimSpace(r.Skills),
		Languages:   strings.TrimSpace(r.Languages),
		DOB:         strings.TrimSpace(r.DOB),
		Nationality: strings.TrimSpace(r.Nationality),
		Religion:    strings.TrimSpace(r.Religion),
		License:     strings.TrimSpace(r.License),
	}
	for _, e := range r.Education {
		e = Education{
			Institute: strings.TrimSpace(e.Institute),
			Degree:    strings.TrimSpace(e.Degree),
			Period:    strings.TrimSpace(e.Period),
		}
		if !e.IsZero() {
			out.Education = append(out.Education, e)
		}
	}
	for _, e := range r.Experience {
		n := Experience{
			Title:   strings.TrimSpace(e.Title),
			Company: strings.TrimSpace(e.Company),
			Period:  strings.TrimSpace(e.Period),
		}
		for _, d := range e.Details {
			if d = strings.TrimSpace(d); d != "" {
				n.Details = append(n.Details, d)
			}
		}
		if !n.IsZero() {
			out.Experience = append(out.Experience, n)
		}
	}
	for _, p := range r.Projects {
		p = Project{
			Title:       strings.TrimSpace(p.Title),
			Role:        strings.TrimSpace(p.Role),
			Period:      strings.TrimSpace(p.Period),
			Description: strings.TrimSpace(p.Description),
			Skills:      strings.TrimSpace(p.Skills),
			Link:        strings.TrimSpace(p.Link),
		}
		if !p.IsZero() {
			out.Projects = append(out.Projects, p)
		}
	}
	for _, l := range r.CustomLinks {
		l = Link{Title: strings.TrimSpace(l.Title), URL: strings.TrimSpace(l.URL)}
		if !l.IsZero() {
			out.CustomLinks = append(out.CustomLinks, l)
		}
	}
	return out
}

// Clone 深拷贝 Record，保证切片不与原值共享底层数组。
func (r Record) Clone() Record {
	out := r
	out.Education = append([]Education(nil), r.Education...)
	out.Projects = append([]Project(nil), r.Projects...)
	out.CustomLinks = append([]Link(nil), r.CustomLinks...)
	out.Experience = nil
	for _, e := range r.Experience {
		e.Details = append([]string(nil), e.Details...)
		out.Experience = append(out.Experience, e)
	}
	return out
}

// Values 以 map 形式暴露标量字段，供 binding 模板插值。
func (r Record) Values() map[string]any {
	return map[string]any{
		"fullName":    r.FullName,
		"title":       r.Title,
		"phone":       r.Phone,
		"whatsapp":    r.WhatsApp,
		"email":       r.Email,
		"profile":     r.Profile,
		"objective":   r.Objective,
		"skills":      r.Skills,
		"languages":   r.Languages,
		"dob":         r.DOB,
		"nationality": r.Nationality,
		"religion":    r.Religion,
		"license":     r.License,
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
