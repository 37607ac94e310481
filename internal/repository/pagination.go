package repository

// Pagination задаёт страницу выборки
type Pagination struct {
	Page    int
	PerPage int
}

// DefaultPerPage - размер страницы по умолчанию
const DefaultPerPage = 15

// MaxPerPage - максимальный размер страницы
const MaxPerPage = 100

// Normalize подставляет значения по умолчанию
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.PerPage
}
