// Package chat runs one chat turn: resolve the message to an intent, answer it
// from the record store and append both sides to the session log.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobmate/brain-service/internal/conversation"
	"jobmate/brain-service/internal/intent"
	"jobmate/brain-service/internal/logger"
	"jobmate/brain-service/internal/records"
)

const dateLayout = "2006-01-02"

// Reply is the outcome of one turn.
type Reply struct {
	Text   string             `json:"text"`
	Intent intent.Intent      `json:"intent"`
	Resume *records.ResumeRef `json:"resume,omitempty"`
}

// Service answers chat messages against a records.Store.
type Service struct {
	records  records.Store
	sessions conversation.Store
}

func NewService(rs records.Store, ss conversation.Store) *Service {
	return &Service{records: rs, sessions: ss}
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// Start opens a new, empty session.
func (s *Service) Start(ctx context.Context) (*conversation.Session, error) {
	return s.sessions.Create(ctx)
}

// Session loads a session by id.
func (s *Service) Session(ctx context.Context, id string) (*conversation.Session, error) {
	return s.sessions.Load(ctx, id)
}

// End discards a session.
func (s *Service) End(ctx context.Context, id string) error {
	return s.sessions.End(ctx, id)
}

// SendTo loads session id, runs one turn and saves the session, also when the
// turn failed so the user message stays in the log.
func (s *Service) SendTo(ctx context.Context, id, text string) (*conversation.Session, Reply, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, Reply{}, err
	}
	reply, sendErr := s.Send(ctx, sess, text)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return sess, Reply{}, fmt.Errorf("save session: %w", err)
	}
	return sess, reply, sendErr
}

// ─── Turn ────────────────────────────────────────────────────────────────────

// Send runs one turn on sess. A storage fault is returned as an error; the
// user message is then logged but no bot reply is.
func (s *Service) Send(ctx context.Context, sess *conversation.Session, text string) (Reply, error) {
	sess.AppendUser(text)

	in, err := intent.Resolve(text)
	if in.Kind == intent.KindResumeForJob {
		sess.LastResume = nil
	}

	var reply Reply
	var usageErr *intent.UsageError
	switch {
	case errors.As(err, &usageErr):
		reply = Reply{Text: usageErr.Hint, Intent: in}
	case err != nil:
		return Reply{}, err
	default:
		reply, err = s.answer(ctx, in)
		if err != nil {
			logger.Error().Err(err).Str("component", "chat").Str("intent", in.Kind.String()).Msg("chat query failed")
			return Reply{}, err
		}
	}

	if in.Kind == intent.KindResumeForJob {
		sess.LastResume = reply.Resume
	}
	sess.AppendAssistant(reply.Text)
	return reply, nil
}

func (s *Service) answer(ctx context.Context, in intent.Intent) (Reply, error) {
	reply := Reply{Intent: in}

	switch in.Kind {
	case intent.KindListResumes:
		docs, err := s.records.ListResumes(ctx)
		if err != nil {
			return reply, err
		}
		reply.Text = formatResumes(docs)

	case intent.KindListJobsByCompany:
		jobs, err := s.records.ListJobsByCompany(ctx, in.Company)
		if err != nil {
			return reply, err
		}
		reply.Text = formatJobs(jobs, fmt.Sprintf("No jobs found at %s.", in.Company))

	case intent.KindResumeForJob:
		ref, err := s.records.GetResumeForJob(ctx, in.Company, in.Role)
		if errors.Is(err, records.ErrNoMatch) {
			reply.Text = fmt.Sprintf("No match found for %s — %s.", in.Company, in.Role)
			return reply, nil
		}
		if err != nil {
			return reply, err
		}
		reply.Resume = ref
		reply.Text = fmt.Sprintf("You used %s for %s — %s.", ref.Filename, in.Company, in.Role)

	case intent.KindJobsForResume:
		jobs, err := s.records.ListJobsForResume(ctx, in.ResumeID)
		if err != nil {
			return reply, err
		}
		reply.Text = formatJobs(jobs, fmt.Sprintf("No jobs found for resume #%d.", in.ResumeID))

	default:
		reply.Text = intent.HelpText
	}
	return reply, nil
}

// ─── Formatting ──────────────────────────────────────────────────────────────

func formatResumes(docs []records.Document) string {
	if len(docs) == 0 {
		return "No resumes uploaded yet."
	}
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("#%d %s (uploaded %s)", d.ID, d.Filename, d.UploadedAt.Format(dateLayout)))
	}
	return strings.Join(lines, "\n")
}

func formatJobs(jobs []records.Job, empty string) string {
	if len(jobs) == 0 {
		return empty
	}
	lines := make([]string, 0, len(jobs))
	for _, j := range jobs {
		lines = append(lines, fmt.Sprintf("#%d %s — %s (%s, applied %s)",
			j.ID, j.Company, j.Role, j.Status, j.DateApplied.Format(dateLayout)))
	}
	return strings.Join(lines, "\n")
}
