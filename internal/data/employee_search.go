package data

import (
	"net/url"
	"strconv"
	"strings"
)

const DefaultPageSize int = 20

// EmployeeSearch describes a page of employees; an empty Term matches every
// employee and a nil Disabled applies no filter.
type EmployeeSearch struct {
	Term     string `json:"term,omitempty"`
	Disabled *bool  `json:"disabled,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

func (e *EmployeeSearch) ToParams() url.Values {
	params := make(url.Values)
	if e.Term != "" {
		params.Set(ParameterSearchWord, e.Term)
	}
	if e.Disabled != nil {
		params.Set(ParameterDisabled, strconv.FormatBool(*e.Disabled))
	}
	if e.Page > 0 {
		params.Set(ParameterPage, strconv.Itoa(e.Page))
	}
	return params
}

// FromParams reads the page, search word and disabled filter; values that
// cannot be parsed are ignored so that the page number clamps to the first page.
func (e *EmployeeSearch) FromParams(params url.Values) {
	for key, value := range params {
		if len(value) == 0 {
			continue
		}
		switch strings.ToLower(key) {
		case ParameterSearchWord:
			e.Term = strings.TrimSpace(value[0])
		case ParameterPage:
			e.Page, _ = strconv.Atoi(strings.TrimSpace(value[0]))
		case ParameterDisabled:
			if disabled, err := strconv.ParseBool(strings.TrimSpace(value[0])); err == nil {
				e.Disabled = &disabled
			}
		}
	}
}

type EmployeePage struct {
	Employees []*Employee `json:"employees"`
	Number    int         `json:"number"`
	NumPages  int         `json:"num_pages"`
	Count     int         `json:"count"`
	PageSize  int         `json:"page_size"`
}

func (p *EmployeePage) HasPrevious() bool { return p.Number > 1 }

func (p *EmployeePage) HasNext() bool { return p.Number < p.NumPages }

func (p *EmployeePage) PreviousPageNumber() int { return p.Number - 1 }

func (p *EmployeePage) NextPageNumber() int { return p.Number + 1 }

// Paginate clamps the requested page number into [1, numPages] and returns
// the offset of its first item; an empty result still has one (empty) page.
func Paginate(count, page, pageSize int) (number, numPages, offset int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	numPages = (count + pageSize - 1) / pageSize
	if numPages < 1 {
		numPages = 1
	}
	switch number = page; {
	case number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}
	return number, numPages, (number - 1) * pageSize
}
