// Package monitor records relayed requests for the dashboard's traffic view.
package monitor

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pxjin/opencode-deck/internal/db"
	"github.com/pxjin/opencode-deck/internal/db/models"
	"gorm.io/gorm"
)

const (
	// MaxMemoryLogs limits the in-memory recent-log cache
	MaxMemoryLogs = 100

	// enabledKey persists the logging toggle across restarts
	enabledKey = "monitor_enabled"
)

// Monitor manages relay request logging and statistics.
type Monitor struct {
	db      *gorm.DB
	enabled atomic.Bool

	recentLogs []models.RequestLog
	logsMu     sync.RWMutex

	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
}

// New creates a Monitor backed by the given database.
func New(database *gorm.DB) *Monitor {
	m := &Monitor{
		db:         database,
		recentLogs: make([]models.RequestLog, 0, MaxMemoryLogs),
	}
	m.loadStatsFromDB()
	m.enabled.Store(db.GetConfigValue(database, enabledKey) != "false")
	return m
}

// SetEnabled enables or disables request logging. The flag is persisted so
// a disabled monitor stays disabled across restarts.
func (m *Monitor) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
	if err := db.SetConfigValue(m.db, enabledKey, strconv.FormatBool(enabled)); err != nil {
		log.Printf("[Monitor] Failed to persist logging toggle: %v", err)
	}
	log.Printf("[Monitor] Logging %s", map[bool]string{true: "enabled", false: "disabled"}[enabled])
}

// IsEnabled returns whether logging is enabled.
func (m *Monitor) IsEnabled() bool {
	return m.enabled.Load()
}

// Record logs one relayed request (async DB write, non-blocking).
func (m *Monitor) Record(entry models.RequestLog) {
	if !m.IsEnabled() {
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	m.totalRequests.Add(1)
	if entry.Status >= 200 && entry.Status < 400 {
		m.successCount.Add(1)
	} else {
		m.errorCount.Add(1)
	}

	m.logsMu.Lock()
	m.recentLogs = append([]models.RequestLog{entry}, m.recentLogs...)
	if len(m.recentLogs) > MaxMemoryLogs {
		m.recentLogs = m.recentLogs[:MaxMemoryLogs]
	}
	m.logsMu.Unlock()

	go func(e models.RequestLog) {
		if err := m.db.Create(&e).Error; err != nil {
			log.Printf("[Monitor] Failed to save log: %v", err)
		}
	}(entry)
}

// Logs returns recent request logs, newest first.
func (m *Monitor) Logs(limit int) []models.RequestLog {
	if limit <= 0 {
		limit = 100
	}

	var logs []models.RequestLog
	if err := m.db.Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		log.Printf("[Monitor] Failed to get logs from DB: %v", err)
		m.logsMu.RLock()
		defer m.logsMu.RUnlock()
		if limit > len(m.recentLogs) {
			limit = len(m.recentLogs)
		}
		return m.recentLogs[:limit]
	}
	return logs
}

// Stats returns aggregated request statistics.
func (m *Monitor) Stats() models.RequestStats {
	return models.RequestStats{
		TotalRequests: m.totalRequests.Load(),
		SuccessCount:  m.successCount.Load(),
		ErrorCount:    m.errorCount.Load(),
	}
}

// Clear removes all logs from memory and database.
func (m *Monitor) Clear() error {
	m.logsMu.Lock()
	m.recentLogs = m.recentLogs[:0]
	m.logsMu.Unlock()

	m.totalRequests.Store(0)
	m.successCount.Store(0)
	m.errorCount.Store(0)

	if err := m.db.Exec("DELETE FROM request_logs").Error; err != nil {
		log.Printf("[Monitor] Failed to clear logs: %v", err)
		return err
	}
	return nil
}

func (m *Monitor) loadStatsFromDB() {
	var total, success, errors int64

	m.db.Model(&models.RequestLog{}).Count(&total)
	m.db.Model(&models.RequestLog{}).Where("status >= 200 AND status < 400").Count(&success)
	m.db.Model(&models.RequestLog{}).Where("status < 200 OR status >= 400").Count(&errors)

	m.totalRequests.Store(total)
	m.successCount.Store(success)
	m.errorCount.Store(errors)
}
