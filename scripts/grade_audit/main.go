package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

// grade_audit recomputes weighted totals from the raw score and weight
// endpoints and compares them against the resolved grade rows, flagging any
// drift above the tolerance. Useful after bulk score imports or weight
// reconfiguration.

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type gradeRow struct {
	StudentID     string  `json:"student_id"`
	WeightedTotal float64 `json:"weighted_total"`
	LetterGrade   string  `json:"letter_grade"`
}

type courseWeights struct {
	AssignmentWeight float64 `json:"assignment_weight"`
	QuizWeight       float64 `json:"quiz_weight"`
	MidtermWeight    float64 `json:"midterm_weight"`
	FinalWeight      float64 `json:"final_weight"`
}

type scoreRow struct {
	StudentID string  `json:"student_id"`
	Category  string  `json:"category"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
}

type mismatch struct {
	StudentID string
	Stored    float64
	Computed  float64
}

func main() {
	var (
		base      string
		courseID  string
		token     string
		tolerance float64
		timeout   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&courseID, "course", "", "Course ID to audit")
	flag.StringVar(&token, "token", "", "Bearer token")
	flag.Float64Var(&tolerance, "tolerance", 0.01, "Allowed absolute drift in weighted total")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if courseID == "" {
		log.Fatal("course is required")
	}

	client := &http.Client{Timeout: timeout}

	var report struct {
		Rows []gradeRow `json:"students"`
	}
	if err := fetch(client, base+"/grading/reports/courses/"+courseID, token, &report); err != nil {
		log.Fatalf("failed to load course report: %v", err)
	}

	var weights courseWeights
	if err := fetch(client, base+"/grading/weights/"+courseID, token, &weights); err != nil {
		// Unconfigured courses resolve against the documented defaults.
		weights = courseWeights{AssignmentWeight: 20, QuizWeight: 20, MidtermWeight: 25, FinalWeight: 35}
	}

	var scores []scoreRow
	if err := fetch(client, base+"/grading/scores?courseId="+courseID, token, &scores); err != nil {
		log.Fatalf("failed to load scores: %v", err)
	}

	computed := recompute(scores, weights)

	var mismatches []mismatch
	for _, row := range report.Rows {
		want, ok := computed[row.StudentID]
		if !ok {
			continue
		}
		if math.Abs(want-row.WeightedTotal) > tolerance {
			mismatches = append(mismatches, mismatch{StudentID: row.StudentID, Stored: row.WeightedTotal, Computed: want})
		}
	}

	fmt.Printf("audited %d resolved grades for course %s\n", len(report.Rows), courseID)
	if len(mismatches) == 0 {
		fmt.Println("no drift detected")
		return
	}
	for _, m := range mismatches {
		fmt.Printf("  %s: stored=%.3f computed=%.3f delta=%.3f\n", m.StudentID, m.Stored, m.Computed, m.Computed-m.Stored)
	}
	os.Exit(1)
}

func recompute(scores []scoreRow, weights courseWeights) map[string]float64 {
	type bucket struct {
		sum   float64
		count int
	}
	perStudent := map[string]map[string]*bucket{}
	for _, s := range scores {
		if s.MaxScore <= 0 {
			continue
		}
		cats, ok := perStudent[s.StudentID]
		if !ok {
			cats = map[string]*bucket{}
			perStudent[s.StudentID] = cats
		}
		b, ok := cats[s.Category]
		if !ok {
			b = &bucket{}
			cats[s.Category] = b
		}
		b.sum += (s.Score / s.MaxScore) * 100
		b.count++
	}

	weightFor := func(category string) float64 {
		switch category {
		case "assignment":
			return weights.AssignmentWeight
		case "quiz":
			return weights.QuizWeight
		case "midterm":
			return weights.MidtermWeight
		case "final":
			return weights.FinalWeight
		default:
			return 0
		}
	}

	totals := map[string]float64{}
	for studentID, cats := range perStudent {
		total := 0.0
		for category, b := range cats {
			if b.count == 0 {
				continue
			}
			avg := b.sum / float64(b.count)
			total += avg * weightFor(category) / 100
		}
		totals[studentID] = total
	}
	return totals
}

func fetch(client *http.Client, url, token string, dest interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, dest)
}
