// Package grpcserver exposes the chat assistant over gRPC. Requests and
// replies travel as structpb.Struct; every turn is answered by chat.Service.
package grpcserver

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"jobmate/brain-service/internal/chat"
	"jobmate/brain-service/internal/conversation"
	"jobmate/brain-service/internal/intent"
	"jobmate/brain-service/internal/logger"
	"jobmate/brain-service/internal/records"
)

// Server answers the brain.v1.ChatService RPCs.
type Server struct {
	svc *chat.Service
}

// NewServer wraps svc.
func NewServer(svc *chat.Service) *Server {
	return &Server{svc: svc}
}

// ─── RPCs ────────────────────────────────────────────────────────────────────

// StartSession opens a session. Response: {sessionId}.
func (s *Server) StartSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.svc.Start(ctx)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return newStruct(map[string]any{"sessionId": sess.ID})
}

// SendMessage runs one chat turn. Request: {sessionId, message}; the session
// id may also come as x-session-id metadata. Response: {reply, intent,
// messageCount, resume?}.
func (s *Server) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	msg := stringField(req, "message")
	if msg == "" {
		return nil, status.Error(codes.InvalidArgument, "message is required")
	}

	sess, reply, err := s.svc.SendTo(ctx, id, msg)
	if err != nil {
		return nil, toGRPCError(err)
	}

	out := map[string]any{
		"reply":        reply.Text,
		"intent":       intentFields(reply.Intent),
		"messageCount": len(sess.Messages),
	}
	if sess.LastResume != nil {
		out["resume"] = map[string]any{
			"documentId": sess.LastResume.DocumentID,
			"filename":   sess.LastResume.Filename,
		}
	}
	return newStruct(out)
}

// Resolve classifies a message without touching any session. Request:
// {message}. Response: {kind, company?, role?, resumeId?, usage?}.
func (s *Server) Resolve(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := intent.Resolve(stringField(req, "message"))
	out := intentFields(in)
	var ue *intent.UsageError
	if errors.As(err, &ue) {
		out["usage"] = ue.Hint
	}
	return newStruct(out)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sessionIDFrom reads sessionId from the request, falling back to the
// x-session-id metadata value.
func sessionIDFrom(ctx context.Context, req *structpb.Struct) (string, error) {
	if id := stringField(req, "sessionId"); id != "" {
		return id, nil
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-session-id"); len(vals) > 0 && vals[0] != "" {
			return vals[0], nil
		}
	}
	return "", status.Error(codes.InvalidArgument, "sessionId is required")
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func intentFields(in intent.Intent) map[string]any {
	m := map[string]any{"kind": in.Kind.String()}
	if in.Company != "" {
		m["company"] = in.Company
	}
	if in.Role != "" {
		m["role"] = in.Role
	}
	if in.ResumeID != 0 {
		m["resumeId"] = in.ResumeID
	}
	return m
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return st, nil
}

// toGRPCError picks the status code for err. Storage faults are logged and
// reported without their detail.
func toGRPCError(err error) error {
	if errors.Is(err, conversation.ErrSessionNotFound) || errors.Is(err, records.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	var ve *records.ValidationError
	if errors.As(err, &ve) {
		return status.Error(codes.InvalidArgument, ve.Msg)
	}
	logger.Error().Err(err).Str("component", "grpc").Msg("rpc failed")
	return status.Error(codes.Internal, "internal server error")
}
