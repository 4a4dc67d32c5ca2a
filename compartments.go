package memgraph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/memgraph/graph"
	"github.com/BaSui01/memgraph/observation"
)

// Typed helpers over the compartment naming scheme. Each builds the
// {compartment}:{subtype}:{identifier} entity name so callers never assemble
// names by hand.

// RecordUserPreference records a preference fact under user:preference:{category}.
func (s *System) RecordUserPreference(category, key string, value observation.Value, source observation.Source) (observation.Observation, error) {
	name := fmt.Sprintf("%s:preference:%s", graph.CompartmentUser, category)
	return s.store.UpsertObservation(name, key, value, source)
}

// RecordWorkspaceFact records a fact about a workspace file under
// workspace:file:{path}.
func (s *System) RecordWorkspaceFact(path, key string, value observation.Value, source observation.Source) (observation.Observation, error) {
	name := fmt.Sprintf("%s:file:%s", graph.CompartmentWorkspace, path)
	return s.store.UpsertObservation(name, key, value, source)
}

// RecordConversationMessage appends a message to conversation:session:{sessionID},
// keyed by the speaker role. Messages are direct statements.
func (s *System) RecordConversationMessage(sessionID, role, content string) (observation.Observation, error) {
	name := fmt.Sprintf("%s:session:%s", graph.CompartmentConversation, sessionID)
	return s.store.UpsertObservation(name, role, observation.String(content), observation.SourceDirectStatement)
}

// RecordPattern records a recognized behavioral pattern under
// memory:pattern:{patternName}.
func (s *System) RecordPattern(patternName, description string, source observation.Source) (observation.Observation, error) {
	name := fmt.Sprintf("%s:pattern:%s", graph.CompartmentMemory, patternName)
	return s.store.UpsertObservation(name, "description", observation.String(description), source)
}

// Relate adds a typed directed relation between two active entities.
func (s *System) Relate(from string, relType graph.RelationType, to string) (graph.Relation, error) {
	return s.store.AddRelation(from, relType, to)
}

// SummarizeSession condenses the named conversation into a summary entity
// under memory:summary:{sessionID} and links the session to it. It needs a
// configured Summarizer; a summarizer failure leaves the graph exactly as it
// was.
func (s *System) SummarizeSession(ctx context.Context, sessionID string) (string, error) {
	if s.summarizer == nil {
		return "", fmt.Errorf("no summarizer configured")
	}

	sessionName := fmt.Sprintf("%s:session:%s", graph.CompartmentConversation, sessionID)
	session, err := s.store.GetEntity(sessionName)
	if err != nil {
		return "", err
	}

	messages := make([]string, 0, len(session.Observations))
	for _, o := range session.Observations {
		messages = append(messages, o.Key+": "+o.Value)
	}

	summary, err := s.summarizer.Summarize(ctx, messages)
	if err != nil {
		s.logger.Warn("session summarization failed",
			zap.String("session", sessionID),
			zap.Error(err))
		return "", err
	}

	summaryName := fmt.Sprintf("%s:summary:%s", graph.CompartmentMemory, sessionID)
	if _, err := s.store.UpsertObservation(summaryName, "summary",
		observation.String(summary), observation.SourceStrongInference); err != nil {
		return "", err
	}
	if _, err := s.store.AddRelation(sessionName, graph.RelationSummarizedIn, summaryName); err != nil {
		return "", err
	}
	return summary, nil
}
