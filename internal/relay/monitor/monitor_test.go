package monitor

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pxjin/opencode-deck/internal/db/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.AutoMigrate(&models.RequestLog{}, &models.Config{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func waitForLogs(t *testing.T, m *Monitor, want int) []models.RequestLog {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		logs := m.Logs(100)
		if len(logs) >= want {
			return logs
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d logs, got %d", want, len(logs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRecordAndStats(t *testing.T) {
	m := New(newTestDB(t))

	m.Record(models.RequestLog{Method: "GET", Path: "/session", Status: 200})
	m.Record(models.RequestLog{Method: "POST", Path: "/session", Status: 201})
	m.Record(models.RequestLog{Method: "GET", Path: "/session", Status: 502, Error: "upstream down"})

	stats := m.Stats()
	if stats.TotalRequests != 3 {
		t.Errorf("total = %d, want 3", stats.TotalRequests)
	}
	if stats.SuccessCount != 2 {
		t.Errorf("success = %d, want 2", stats.SuccessCount)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("errors = %d, want 1", stats.ErrorCount)
	}

	logs := waitForLogs(t, m, 3)
	for _, entry := range logs {
		if entry.ID == "" || entry.Timestamp == 0 {
			t.Errorf("entry missing id or timestamp: %+v", entry)
		}
	}
}

func TestRecordDisabled(t *testing.T) {
	m := New(newTestDB(t))
	m.SetEnabled(false)

	m.Record(models.RequestLog{Method: "GET", Path: "/session", Status: 200})

	if stats := m.Stats(); stats.TotalRequests != 0 {
		t.Fatalf("disabled monitor recorded %d requests", stats.TotalRequests)
	}
	if logs := m.Logs(10); len(logs) != 0 {
		t.Fatalf("disabled monitor stored %d logs", len(logs))
	}
}

func TestClear(t *testing.T) {
	m := New(newTestDB(t))

	m.Record(models.RequestLog{Method: "GET", Path: "/session", Status: 200})
	waitForLogs(t, m, 1)

	if err := m.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if stats := m.Stats(); stats.TotalRequests != 0 || stats.SuccessCount != 0 {
		t.Fatalf("stats not reset: %+v", stats)
	}
	if logs := m.Logs(10); len(logs) != 0 {
		t.Fatalf("logs not cleared: %d remain", len(logs))
	}
}

func TestEnabledToggleSurvivesRestart(t *testing.T) {
	database := newTestDB(t)

	m := New(database)
	if !m.IsEnabled() {
		t.Fatal("fresh monitor should start enabled")
	}
	m.SetEnabled(false)

	m2 := New(database)
	if m2.IsEnabled() {
		t.Fatal("disabled toggle not restored after restart")
	}

	m2.SetEnabled(true)
	if m3 := New(database); !m3.IsEnabled() {
		t.Fatal("re-enabled toggle not restored after restart")
	}
}

func TestStatsSurviveRestart(t *testing.T) {
	database := newTestDB(t)

	m := New(database)
	m.Record(models.RequestLog{Method: "GET", Path: "/session", Status: 200})
	m.Record(models.RequestLog{Method: "GET", Path: "/session", Status: 500})
	waitForLogs(t, m, 2)

	// A fresh monitor over the same database rebuilds its counters.
	m2 := New(database)
	stats := m2.Stats()
	if stats.TotalRequests != 2 || stats.SuccessCount != 1 || stats.ErrorCount != 1 {
		t.Fatalf("stats not restored: %+v", stats)
	}
}
