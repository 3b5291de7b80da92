package anomaly

import (
	"testing"
	"time"

	"persona-mcp/internal/persona"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCheckStructure_ImpossibleDay(t *testing.T) {
	// 2024-06-05 is a Wednesday
	entries := []persona.Entry{
		persona.NewEntry(date(2024, 6, 5), persona.Sleep, 9),
		persona.NewEntry(date(2024, 6, 5), persona.Professional, 10),
		persona.NewEntry(date(2024, 6, 5), persona.Family, 6),
	}

	found := CheckStructure(entries)
	if len(found) != 1 {
		t.Fatalf("Expected exactly 1 anomaly, got %d: %+v", len(found), found)
	}
	a := found[0]
	if a.Severity != Critical || a.Type != Structural || a.Category != CategoryDataIntegrity {
		t.Errorf("Expected Critical Structural Data Integrity anomaly, got %+v", a)
	}
	if a.Value != 25.0 {
		t.Errorf("Expected value 25.0, got %v", a.Value)
	}
	if a.Date != "2024-06-05" {
		t.Errorf("Expected date 2024-06-05, got %s", a.Date)
	}
}

func TestCheckStructure_IncompleteDay(t *testing.T) {
	entries := []persona.Entry{
		persona.NewEntry(date(2024, 6, 5), persona.Sleep, 2),
		persona.NewEntry(date(2024, 6, 5), persona.Individual, 1.5),
		persona.NewEntry(date(2024, 6, 6), persona.Sleep, 0),
	}

	found := CheckStructure(entries)
	if len(found) != 1 {
		t.Fatalf("Expected 1 incomplete-day anomaly (zero-hour days are not flagged), got %d", len(found))
	}
	if found[0].Severity != Warning || found[0].Value != 3.5 {
		t.Errorf("Unexpected anomaly: %+v", found[0])
	}
}

func TestCheckStructure_WeekendWork(t *testing.T) {
	// 2024-06-08 is a Saturday
	entries := []persona.Entry{
		persona.NewEntry(date(2024, 6, 8), persona.Sleep, 8),
		persona.NewEntry(date(2024, 6, 8), persona.Professional, 5),
		persona.NewEntry(date(2024, 6, 9), persona.Sleep, 8),
		persona.NewEntry(date(2024, 6, 9), persona.Professional, 4), // at the limit, not flagged
	}

	found := CheckStructure(entries)
	if len(found) != 1 {
		t.Fatalf("Expected 1 weekend-work anomaly, got %d: %+v", len(found), found)
	}
	a := found[0]
	if a.Type != Behavioral || a.Category != CategoryWorkLifeBalance || a.Severity != Warning || a.Value != 5 {
		t.Errorf("Unexpected anomaly: %+v", a)
	}
}

func TestCheckStructure_RespectsExplicitDayType(t *testing.T) {
	e := persona.NewEntry(date(2024, 6, 5), persona.Professional, 6)
	e.DayType = persona.Weekend
	found := CheckStructure([]persona.Entry{e, persona.NewEntry(date(2024, 6, 5), persona.Sleep, 8)})
	if len(found) != 1 || found[0].Type != Behavioral {
		t.Errorf("Expected the tagged weekend entry to be flagged, got %+v", found)
	}
}

func TestAggregate_SortsMostRecentFirstWithoutDedup(t *testing.T) {
	structural := []Anomaly{
		{Date: "2024-01-02", Type: Structural},
		{Date: "2024-03-01", Type: Structural},
	}
	statistical := []Anomaly{
		{Date: "2024-03-01", Type: Statistical},
		{Date: "2023-12-31", Type: Statistical},
	}

	all := Aggregate(structural, statistical)
	if len(all) != 4 {
		t.Fatalf("Expected 4 anomalies, got %d", len(all))
	}
	wantDates := []string{"2024-03-01", "2024-03-01", "2024-01-02", "2023-12-31"}
	for i, d := range wantDates {
		if all[i].Date != d {
			t.Errorf("Position %d: expected %s, got %s", i, d, all[i].Date)
		}
	}
	// Stable: structural precedes statistical on the same date.
	if all[0].Type != Structural || all[1].Type != Statistical {
		t.Errorf("Expected stable ordering on equal dates, got %v then %v", all[0].Type, all[1].Type)
	}
}

func TestDetectStatistical_SkipsShortHistory(t *testing.T) {
	var entries []persona.Entry
	for i := 0; i < MinDailyPoints-1; i++ {
		hours := 8.0
		if i == 6 {
			hours = 20
		}
		entries = append(entries, persona.NewEntry(date(2024, 1, 1).AddDate(0, 0, i), persona.Professional, hours))
	}
	if found := DetectStatistical(entries); len(found) != 0 {
		t.Errorf("Expected no statistical anomalies below %d points, got %d", MinDailyPoints, len(found))
	}
}

func TestDetect_FindsSpikeInSleep(t *testing.T) {
	var entries []persona.Entry
	for i := 0; i < 28; i++ {
		hours := 7 + 0.25*float64((i*3)%4)
		if i == 20 {
			hours = 16
		}
		entries = append(entries, persona.NewEntry(date(2024, 1, 1).AddDate(0, 0, i), persona.Sleep, hours))
	}

	found := Detect(entries)
	var stat *Anomaly
	for i := range found {
		if found[i].Type == Statistical {
			stat = &found[i]
		}
	}
	if stat == nil {
		t.Fatalf("Expected a statistical anomaly, got %+v", found)
	}
	if stat.Date != "2024-01-21" || stat.Category != persona.Sleep.Label() {
		t.Errorf("Unexpected statistical anomaly: %+v", *stat)
	}
	if stat.Expected == nil || stat.Score == nil {
		t.Errorf("Statistical anomalies must carry expected value and score")
	}

	summary := Summarize(found)
	if summary.Total != len(found) || summary.ByType[Statistical] < 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}
