package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/sectionrank/internal/layout"
)

// Query is who is reading and what they need to get done.
type Query struct {
	Persona string
	Job     string
}

// String joins persona and job into the text that is embedded.
func (q Query) String() string {
	return q.Persona + ". " + q.Job
}

type queryFile struct {
	Persona struct {
		Role string `json:"role"`
	} `json:"persona"`
	JobToBeDone struct {
		Task string `json:"task"`
	} `json:"job_to_be_done"`
}

// LoadQuery returns the query from persona and job when both are set.
// Otherwise it reads the first *.json file in dir (by name, skipping
// structured-text exports) and fills whichever part is missing.
func LoadQuery(dir, persona, job string) (Query, error) {
	q := Query{Persona: strings.TrimSpace(persona), Job: strings.TrimSpace(job)}
	if q.Persona != "" && q.Job != "" {
		return q, nil
	}

	path, err := findQueryFile(dir)
	if err != nil {
		return Query{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}
	var qf queryFile
	if err := json.Unmarshal(data, &qf); err != nil {
		return Query{}, fmt.Errorf("%w: %s: %v", ErrMalformedQuery, filepath.Base(path), err)
	}

	if q.Persona == "" {
		q.Persona = strings.TrimSpace(qf.Persona.Role)
	}
	if q.Job == "" {
		q.Job = strings.TrimSpace(qf.JobToBeDone.Task)
	}
	if q.Persona == "" || q.Job == "" {
		return Query{}, fmt.Errorf("%w: %s lacks persona.role or job_to_be_done.task",
			ErrMalformedQuery, filepath.Base(path))
	}
	return q, nil
}

func findQueryFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedQuery, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || layout.IsSText(name) {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no query file in %s", ErrMalformedQuery, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}
