package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// WarningReport is what gets published for one build run.
type WarningReport struct {
	RunID   string               `json:"run_id"`
	Subject string               `json:"subject"`
	Entries []AggregatedLogEntry `json:"entries"`
}

// WarningCollector deduplicates warn/error entries for a single run so they
// can be reviewed by a human once the run finishes.
type WarningCollector struct {
	publisher Publisher
	topic     string
	now       func() time.Time

	mutex  sync.Mutex
	logMap map[string]*AggregatedLogEntry
}

// NewWarningCollector creates a collector. A nil publisher makes Flush a no-op
// that only drains the collected entries.
func NewWarningCollector(publisher Publisher, topic string) *WarningCollector {
	return &WarningCollector{
		publisher: publisher,
		topic:     topic,
		now:       time.Now,
		logMap:    make(map[string]*AggregatedLogEntry),
	}
}

func (d *WarningCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := d.now()
	key := generateKey(level, message, fields)

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if entry, exists := d.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
		return
	}
	d.logMap[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// generateKey hashes level + message + fields; the caller is left out so the
// same warning raised from two code paths is counted once.
func generateKey(level, message string, fields map[string]interface{}) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}{level, message, fields}

	jsonData, _ := json.Marshal(data)
	return fmt.Sprintf("%x", sha256.Sum256(jsonData))
}

// Len returns the number of distinct entries held.
func (d *WarningCollector) Len() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.logMap)
}

// Drain returns the collected entries ordered by first appearance and resets
// the collector.
func (d *WarningCollector) Drain() []AggregatedLogEntry {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	logs := make([]AggregatedLogEntry, 0, len(d.logMap))
	for _, entry := range d.logMap {
		logs = append(logs, *entry)
	}
	d.logMap = make(map[string]*AggregatedLogEntry)

	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].FirstSeen.Equal(logs[j].FirstSeen) {
			return logs[i].FirstSeen.Before(logs[j].FirstSeen)
		}
		return logs[i].Message < logs[j].Message
	})
	return logs
}

// Flush drains the collector and publishes the entries under runID/subject.
// Nothing is sent when there is nothing to report.
func (d *WarningCollector) Flush(ctx context.Context, runID, subject string) ([]AggregatedLogEntry, error) {
	logs := d.Drain()
	if len(logs) == 0 || d.publisher == nil {
		return logs, nil
	}
	report := WarningReport{RunID: runID, Subject: subject, Entries: logs}
	if err := d.publisher.PublishMessage(ctx, d.topic, report); err != nil {
		return logs, fmt.Errorf("publish warnings: %w", err)
	}
	return logs, nil
}
