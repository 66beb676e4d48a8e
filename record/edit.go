package record

import (
	"errors"
	"fmt"
)

// Section 标识 Record 中的有序列表。
type Section string

const (
	SectionEducation   Section = "education"
	SectionExperience  Section = "experience"
	SectionProjects    Section = "projects"
	SectionCustomLinks Section = "customLinks"
)

var (
	ErrUnknownSection  = errors.New("record: unknown section")
	ErrUnknownField    = errors.New("record: unknown field")
	ErrIndexOutOfRange = errors.New("record: index out of range")
)

// SetField 按 JSON 字段名设置标量字段，返回新的 Record。
func (r Record) SetField(name, value string) (Record, error) {
	out := r.Clone()
	switch name {
	case "fullName":
		out.FullName = value
	case "title":
		out.Title = value
	case "phone":
		out.Phone = value
	case "whatsapp":
		out.WhatsApp = value
	case "email":
		out.Email = value
	case "photo":
		out.Photo = value
	case "profile":
		out.Profile = value
	case "objective":
		out.Objective = value
	case "skills":
		out.Skills = value
	case "languages":
		out.Languages = value
	case "dob":
		out.DOB = value
	case "nationality":
		out.Nationality = value
	case "religion":
		out.Religion = value
	case "license":
		out.License = value
	default:
		return r, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return out, nil
}

// AddItem 在列表末尾追加一条空白条目。
func (r Record) AddItem(section Section) (Record, error) {
	out := r.Clone()
	switch section {
	case SectionEducation:
		out.Education = append(out.Education, Education{})
	case SectionExperience:
		out.Experience = append(out.Experience, Experience{Details: []string{""}})
	case SectionProjects:
		out.Projects = append(out.Projects, Project{})
	case SectionCustomLinks:
		out.CustomLinks = append(out.CustomLinks, Link{})
	default:
		return r, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return out, nil
}

// RemoveItem 删除 index 处的条目。
func (r Record) RemoveItem(section Section, index int) (Record, error) {
	n, err := r.Len(section)
	if err != nil {
		return r, err
	}
	if index < 0 || index >= n {
		return r, fmt.Errorf("%w: %s[%d] (len %d)", ErrIndexOutOfRange, section, index, n)
	}
	out := r.Clone()
	switch section {
	case SectionEducation:
		out.Education = removeAt(out.Education, index)
	case SectionExperience:
		out.Experience = removeAt(out.Experience, index)
	case SectionProjects:
		out.Projects = removeAt(out.Projects, index)
	case SectionCustomLinks:
		out.CustomLinks = removeAt(out.CustomLinks, index)
	}
	return out, nil
}

// MoveItem 将 from 处的条目移动到 to，其余条目保持相对顺序（拖拽排序）。
func (r Record) MoveItem(section Section, from, to int) (Record, error) {
	n, err := r.Len(section)
	if err != nil {
		return r, err
	}
	if from < 0 || from >= n || to < 0 || to >= n {
		return r, fmt.Errorf("%w: %s move %d→%d (len %d)", ErrIndexOutOfRange, section, from, to, n)
	}
	out := r.Clone()
	switch section {
	case SectionEducation:
		out.Education = moveAt(out.Education, from, to)
	case SectionExperience:
		out.Experience = moveAt(out.Experience, from, to)
	case SectionProjects:
		out.Projects = moveAt(out.Projects, from, to)
	case SectionCustomLinks:
		out.CustomLinks = moveAt(out.CustomLinks, from, to)
	}
	return out, nil
}

// Len 返回列表长度。
func (r Record) Len(section Section) (int, error) {
	switch section {
	case SectionEducation:
		return len(r.Education), nil
	case SectionExperience:
		return len(r.Experience), nil
	case SectionProjects:
		return len(r.Projects), nil
	case SectionCustomLinks:
		return len(r.CustomLinks), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
}

// AddDetail 为第 job 段工作经历追加一条空白要点。
func (r Record) AddDetail(job int) (Record, error) {
	if job < 0 || job >= len(r.Experience) {
		return r, fmt.Errorf("%w: experience[%d]", ErrIndexOutOfRange, job)
	}
	out := r.Clone()
	out.Experience[job].Details = append(out.Experience[job].Details, "")
	return out, nil
}

// SetDetail 修改第 job 段工作经历的第 index 条要点。
func (r Record) SetDetail(job, index int, value string) (Record, error) {
	if job < 0 || job >= len(r.Experience) {
		return r, fmt.Errorf("%w: experience[%d]", ErrIndexOutOfRange, job)
	}
	if index < 0 || index >= len(r.Experience[job].Details) {
		return r, fmt.Errorf("%w: experience[%d].details[%d]", ErrIndexOutOfRange, job, index)
	}
	out := r.Clone()
	out.Experience[job].Details[index] = value
	return out, nil
}

// RemoveDetail 删除第 job 段工作经历的第 index 条要点。
func (r Record) RemoveDetail(job, index int) (Record, error) {
	if job < 0 || job >= len(r.Experience) {
		return r, fmt.Errorf("%w: experience[%d]", ErrIndexOutOfRange, job)
	}
	if index < 0 || index >= len(r.Experience[job].Details) {
		return r, fmt.Errorf("%w: experience[%d].details[%d]", ErrIndexOutOfRange, job, index)
	}
	out := r.Clone()
	out.Experience[job].Details = removeAt(out.Experience[job].Details, index)
	return out, nil
}

// MoveDetail 调整第 job 段工作经历中要点的顺序。
func (r Record) MoveDetail(job, from, to int) (Record, error) {
	if job < 0 || job >= len(r.Experience) {
		return r, fmt.Errorf("%w: experience[%d]", ErrIndexOutOfRange, job)
	}
	n := len(r.Experience[job].Details)
	if from < 0 || from >= n || to < 0 || to >= n {
		return r, fmt.Errorf("%w: experience[%d].details move %d→%d (len %d)", ErrIndexOutOfRange, job, from, to, n)
	}
	out := r.Clone()
	out.Experience[job].Details = moveAt(out.Experience[job].Details, from, to)
	return out, nil
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func moveAt[T any](s []T, from, to int) []T {
	if from == to {
		return s
	}
	item := s[from]
	rest := removeAt(s, from)
	out := make([]T, 0, len(s))
	out = append(out, rest[:to]...)
	out = append(out, item)
	return append(out, rest[to:]...)
}
