package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Fixed-width timestamps keep created_at ordering lexical.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Interviews ---

const interviewColumns = `id, created_at, interview_type, phone, agent_id, agent_name, agent_reused,
	knowledge_file_id, resume_file_name, resume_digest, request_id, call_status, mock`

type scanner interface {
	Scan(dest ...any) error
}

func scanInterview(row scanner) (Interview, error) {
	var (
		iv        Interview
		createdAt string
		reused    int
		mock      int
	)
	err := row.Scan(&iv.ID, &createdAt, &iv.InterviewType, &iv.Phone, &iv.AgentID, &iv.AgentName, &reused,
		&iv.KnowledgeFileID, &iv.ResumeFileName, &iv.ResumeDigest, &iv.RequestID, &iv.CallStatus, &mock)
	if err != nil {
		return Interview{}, err
	}
	if iv.CreatedAt, err = parseTime(createdAt); err != nil {
		return Interview{}, err
	}
	iv.AgentReused = reused != 0
	iv.Mock = mock != 0
	return iv, nil
}

func (s *Store) SaveInterview(iv Interview) error {
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO interviews (`+interviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, formatTime(iv.CreatedAt), iv.InterviewType, iv.Phone, iv.AgentID, iv.AgentName, boolInt(iv.AgentReused),
		iv.KnowledgeFileID, iv.ResumeFileName, iv.ResumeDigest, iv.RequestID, iv.CallStatus, boolInt(iv.Mock),
	)
	if err != nil {
		return fmt.Errorf("saving interview %s: %w", iv.ID, err)
	}
	return nil
}

func (s *Store) GetInterview(id string) (Interview, error) {
	iv, err := scanInterview(s.db.QueryRow(`SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Interview{}, ErrNotFound
	}
	return iv, err
}

// ListInterviews returns interviews newest first.
func (s *Store) ListInterviews(limit, offset int) ([]Interview, error) {
	rows, err := s.db.Query(`SELECT `+interviewColumns+` FROM interviews
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, iv)
	}
	return results, rows.Err()
}

// --- Chat ---

func (s *Store) SaveChatExchange(c ChatExchange) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO chat_exchanges (id, created_at, agent_id, session_id, message, reply, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, formatTime(c.CreatedAt), c.AgentID, c.SessionID, c.Message, c.Reply, boolInt(c.Fallback),
	)
	if err != nil {
		return fmt.Errorf("saving chat exchange %s: %w", c.ID, err)
	}
	return nil
}

// ListChatExchanges returns the exchanges with agentID, oldest first.
func (s *Store) ListChatExchanges(agentID string, limit int) ([]ChatExchange, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, agent_id, session_id, message, reply, fallback
		FROM chat_exchanges WHERE agent_id = ? ORDER BY created_at ASC LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []ChatExchange{}
	for rows.Next() {
		var (
			c         ChatExchange
			createdAt string
			fallback  int
		)
		if err := rows.Scan(&c.ID, &createdAt, &c.AgentID, &c.SessionID, &c.Message, &c.Reply, &fallback); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		c.Fallback = fallback != 0
		results = append(results, c)
	}
	return results, rows.Err()
}

// --- Stats ---

func (s *Store) Stats() (Stats, error) {
	var st Stats

	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(mock), 0) FROM interviews`,
	).Scan(&st.Interviews, &st.MockCalls)
	if err != nil {
		return Stats{}, fmt.Errorf("counting interviews: %w", err)
	}
	st.LiveCalls = st.Interviews - st.MockCalls

	if st.ByType, err = s.countByType(); err != nil {
		return Stats{}, err
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(fallback), 0) FROM chat_exchanges`,
	).Scan(&st.ChatMessages, &st.FallbackReplies)
	if err != nil {
		return Stats{}, fmt.Errorf("counting chat exchanges: %w", err)
	}
	return st, nil
}

func (s *Store) countByType() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT interview_type, COUNT(*) FROM interviews GROUP BY interview_type`)
	if err != nil {
		return nil, fmt.Errorf("grouping interviews: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
