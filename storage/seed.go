package storage

import (
	"time"

	"study-planner/domain"
)

// MockActivities returns the sample activities the store starts with when
// seeding is enabled.
func MockActivities(now time.Time) []domain.Activity {
	seed := []struct {
		id        string
		in        domain.NewActivity
		completed bool
	}{
		{"1", domain.NewActivity{Title: "Revisar Funções Quadráticas", Subject: "Matemática", Date: "2024-01-15", Time: "14:30", Duration: "1h 30min"}, false},
		{"2", domain.NewActivity{Title: "Leitura - Segunda Guerra Mundial", Subject: "História", Date: "2024-01-15", Time: "16:00", Duration: "45min"}, true},
		{"3", domain.NewActivity{Title: "Exercícios de Inglês", Subject: "Inglês", Date: "2024-01-16", Time: "09:00", Duration: "1h"}, false},
	}

	out := make([]domain.Activity, 0, len(seed))
	for _, s := range seed {
		a := s.in.Build(now)
		a.ID = s.id
		a.Completed = s.completed
		out = append(out, a)
	}
	return out
}
