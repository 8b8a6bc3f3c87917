// Package parser turns free-text payment descriptions into candidate payments
// using an OpenAI chat model.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mmynk/warikan/internal/models"
)

var (
	// ErrUnparseable is returned when the model reply is not the expected JSON.
	ErrUnparseable = errors.New("could not parse model reply")

	// ErrInvalidCandidate is returned when the reply lacks a payer, a positive
	// amount, or targets.
	ErrInvalidCandidate = errors.New("incomplete payment in text")

	// ErrUnknownParticipant is returned when a name in the reply matches no participant.
	ErrUnknownParticipant = errors.New("unknown participant")
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT3Dot5Turbo

const systemPrompt = "You are an assistant that replies with JSON only."

const promptTemplate = `You are the assistant of a bill-splitting app.
Extract the payer (payer), amount in yen (amount), beneficiaries (targets: array) and an optional note (note) from the text below as JSON.
Participants: %s

Example:
Input: "AがBとCに2000円を立て替えた"
Output: {"payer": "A", "amount": 2000, "targets": ["B", "C"], "note": ""}

Input: "BがCに1000円払った"
Output: {"payer": "B", "amount": 1000, "targets": ["C"], "note": ""}

Input: "Dは今回関係ない"
Output: {"payer": "", "amount": 0, "targets": [], "note": "Dは関係ない"}

Input: %q
Output:
`

// Completer is the subset of the OpenAI client the parser needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Candidate is a payment extracted from text, with names resolved to participant IDs.
type Candidate struct {
	PayerID        string
	Amount         int64
	BeneficiaryIDs []string
	Note           string
}

// reply is the JSON shape requested from the model.
type reply struct {
	Payer   string   `json:"payer"`
	Amount  float64  `json:"amount"`
	Targets []string `json:"targets"`
	Note    string   `json:"note"`
}

// Parser extracts payments from free text.
type Parser struct {
	client Completer
	model  string
}

// New creates a Parser backed by an OpenAI client for apiKey.
func New(apiKey, model string) *Parser {
	return NewWithCompleter(openai.NewClient(apiKey), model)
}

// NewWithCompleter creates a Parser over any Completer.
func NewWithCompleter(client Completer, model string) *Parser {
	if model == "" {
		model = DefaultModel
	}
	return &Parser{client: client, model: model}
}

// Parse asks the model to extract a payment from text and resolves the
// returned names against participants.
func (p *Parser) Parse(ctx context.Context, text string, participants []*models.Participant) (*Candidate, error) {
	names := make([]string, len(participants))
	for i, participant := range participants {
		names[i] = participant.Name
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, strings.Join(names, ", "), text)},
		},
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrUnparseable)
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("Payment parser reply", "content", content)

	var r reply
	if err := json.Unmarshal([]byte(stripFence(content)), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return resolve(r, participants)
}

// resolve validates a reply and maps its names to participant IDs.
func resolve(r reply, participants []*models.Participant) (*Candidate, error) {
	if strings.TrimSpace(r.Payer) == "" {
		return nil, fmt.Errorf("%w: payer missing", ErrInvalidCandidate)
	}
	if r.Amount <= 0 || r.Amount != float64(int64(r.Amount)) {
		return nil, fmt.Errorf("%w: amount must be a positive whole number, got %v", ErrInvalidCandidate, r.Amount)
	}
	if len(r.Targets) == 0 {
		return nil, fmt.Errorf("%w: targets missing", ErrInvalidCandidate)
	}

	byName := make(map[string]string, len(participants))
	for _, participant := range participants {
		byName[models.NormalizeName(participant.Name)] = participant.ID
	}
	lookup := func(name string) (string, error) {
		id, ok := byName[models.NormalizeName(name)]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownParticipant, name)
		}
		return id, nil
	}

	payerID, err := lookup(r.Payer)
	if err != nil {
		return nil, err
	}
	candidate := &Candidate{PayerID: payerID, Amount: int64(r.Amount), Note: r.Note}
	for _, name := range r.Targets {
		id, err := lookup(name)
		if err != nil {
			return nil, err
		}
		candidate.BeneficiaryIDs = append(candidate.BeneficiaryIDs, id)
	}
	return candidate, nil
}

// stripFence removes a Markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
