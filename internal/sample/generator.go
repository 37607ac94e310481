// Package sample генерирует файлы с тестовыми сотрудниками для импорта.
package sample

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"
)

// ErrNoReferences - в базе нет команд или организаций
var ErrNoReferences = errors.New("no teams or organizations found, create some first")

var (
	firstNames = []string{
		"James", "John", "Robert", "Michael", "William", "David", "Richard", "Joseph",
		"Thomas", "Charles", "Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara",
		"Susan", "Jessica", "Sarah", "Karen", "Emma", "Olivia", "Noah", "Liam", "Mason",
		"Jacob", "Ethan", "Alexander", "Sophia", "Isabella", "Charlotte", "Mia", "Amelia",
		"Harper", "Evelyn", "Abigail", "Emily",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Jones", "Brown", "Davis", "Miller", "Wilson",
		"Moore", "Taylor", "Anderson", "Thomas", "Jackson", "White", "Harris", "Martin",
		"Thompson", "Garcia", "Martinez", "Robinson", "Clark", "Rodriguez", "Lewis", "Lee",
		"Walker", "Hall", "Allen", "Young", "Hernandez", "King", "Wright", "Lopez", "Hill",
		"Scott", "Green", "Adams", "Baker", "Gonzalez", "Nelson", "Carter",
	}
	positions = []string{
		"Software Engineer", "Senior Software Engineer", "Principal Engineer", "QA Engineer",
		"DevOps Engineer", "Product Manager", "Project Manager", "UX Designer",
		"UI Designer", "Data Scientist", "Data Analyst", "Marketing Specialist",
		"Sales Representative", "Customer Support Representative", "HR Specialist", "Financial Analyst",
		"Accounting Manager", "Operations Manager", "Administrative Assistant", "Executive Assistant",
	}
	// диапазон зарплаты выбирается по индексу должности, по четыре должности на диапазон
	salaryBands = [][2]int64{
		{40000, 60000},
		{60000, 90000},
		{90000, 130000},
		{130000, 180000},
		{180000, 250000},
	}
	emailDomains = []string{"example.com", "company.org", "enterprise.co", "corp.net", "business.io"}
)

// maxStartDateAgeDays - дата начала работы не старше пяти лет
const maxStartDateAgeDays = 1825

// Record - запись файла импорта
type Record struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	TeamID         int64  `json:"team_id"`
	OrganizationID int64  `json:"organization_id"`
	Salary         int64  `json:"salary"`
	StartDate      string `json:"start_date"`
	Position       string `json:"position"`
}

// IDLister перечисляет идентификаторы существующих записей
type IDLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Generator строит случайные записи сотрудников
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator создаёт генератор; одинаковый seed даёт одинаковый результат
func NewGenerator(seed uint64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
}

// Generate строит count записей со ссылками на переданные команды и организации
func (g *Generator) Generate(count int, teamIDs, orgIDs []int64) ([]Record, error) {
	if len(teamIDs) == 0 || len(orgIDs) == 0 {
		return nil, ErrNoReferences
	}

	today := g.now().UTC()
	seen := make(map[string]struct{}, count)
	records := make([]Record, 0, count)

	for i := 0; i < count; i++ {
		first := pick(g.rnd, firstNames)
		last := pick(g.rnd, lastNames)

		positionIndex := g.rnd.IntN(len(positions))
		band := salaryBands[min(len(salaryBands)-1, positionIndex/4)]
		salary := band[0] + g.rnd.Int64N(band[1]-band[0]+1)

		records = append(records, Record{
			Name:           first + " " + last,
			Email:          g.uniqueEmail(seen, first, last),
			TeamID:         pick(g.rnd, teamIDs),
			OrganizationID: pick(g.rnd, orgIDs),
			Salary:         salary,
			StartDate:      today.AddDate(0, 0, -g.rnd.IntN(maxStartDateAgeDays+1)).Format(time.DateOnly),
			Position:       positions[positionIndex],
		})
	}
	return records, nil
}

func (g *Generator) uniqueEmail(seen map[string]struct{}, first, last string) string {
	prefix := strings.ToLower(first + "." + last)
	domain := pick(g.rnd, emailDomains)

	email := prefix + "@" + domain
	for n := 1; ; n++ {
		if _, dup := seen[email]; !dup {
			break
		}
		email = fmt.Sprintf("%s%d@%s", prefix, n, domain)
	}
	seen[email] = struct{}{}
	return email
}

// Write генерирует записи из базы и пишет их JSON массивом
func (g *Generator) Write(ctx context.Context, teams, orgs IDLister, count int, w io.Writer) (int, error) {
	teamIDs, err := teams.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load team ids: %w", err)
	}
	orgIDs, err := orgs.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load organization ids: %w", err)
	}

	records, err := g.Generate(count, teamIDs, orgIDs)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("encode records: %w", err)
	}
	return len(records), nil
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.IntN(len(items))]
}
