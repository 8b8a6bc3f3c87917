package service

import "github.com/mmynk/warikan/internal/models"

// Wire messages for the warikan.v1 services. Field names follow the JSON
// mapping a protobuf schema would produce.

type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

type Participant struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

type Payment struct {
	ID             string   `json:"id"`
	GroupID        string   `json:"groupId"`
	Title          string   `json:"title"`
	Amount         int64    `json:"amount"`
	PayerID        string   `json:"payerId"`
	BeneficiaryIDs []string `json:"beneficiaryIds"`
	CreatedAt      int64    `json:"createdAt"`
}

type Settlement struct {
	ID        string `json:"id"`
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

type Balance struct {
	ParticipantID string  `json:"participantId"`
	Amount        float64 `json:"amount"`
}

// GroupService messages

type CreateGroupRequest struct {
	Name string `json:"name"`
	// Participants are optional initial participant names.
	Participants []string `json:"participants,omitempty"`
}

type CreateGroupResponse struct {
	Group        *Group         `json:"group"`
	Participants []*Participant `json:"participants"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group        *Group         `json:"group"`
	Participants []*Participant `json:"participants"`
}

type AddParticipantRequest struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

type AddParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type ListParticipantsRequest struct {
	GroupID string `json:"groupId"`
}

type ListParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type GetBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetBalancesResponse struct {
	Balances []*Balance `json:"balances"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
	// Recomputing is set while a reconcile for the group is running; the
	// list may be replaced shortly.
	Recomputing bool `json:"recomputing"`
}

type UpdateSettlementStatusRequest struct {
	SettlementID string `json:"settlementId"`
	Status       string `json:"status"`
}

type UpdateSettlementStatusResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ReconcileRequest struct {
	GroupID string `json:"groupId"`
}

type ReconcileResponse struct {
	Settlements []*Settlement `json:"settlements"`
	Kept        int           `json:"kept"`
	Inserted    int           `json:"inserted"`
	Deleted     int           `json:"deleted"`
}

// PaymentService messages

type CreatePaymentRequest struct {
	GroupID        string   `json:"groupId"`
	Title          string   `json:"title"`
	Amount         int64    `json:"amount"`
	PayerID        string   `json:"payerId"`
	BeneficiaryIDs []string `json:"beneficiaryIds"`
}

type CreatePaymentResponse struct {
	Payment     *Payment      `json:"payment"`
	Settlements []*Settlement `json:"settlements"`
}

type UpdatePaymentRequest struct {
	PaymentID      string   `json:"paymentId"`
	Title          string   `json:"title"`
	Amount         int64    `json:"amount"`
	PayerID        string   `json:"payerId"`
	BeneficiaryIDs []string `json:"beneficiaryIds"`
}

type UpdatePaymentResponse struct {
	Payment     *Payment      `json:"payment"`
	Settlements []*Settlement `json:"settlements"`
}

type DeletePaymentRequest struct {
	PaymentID string `json:"paymentId"`
}

type DeletePaymentResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type ListPaymentsRequest struct {
	GroupID string `json:"groupId"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type ParsePaymentRequest struct {
	GroupID string `json:"groupId"`
	Text    string `json:"text"`
}

type ParsePaymentResponse struct {
	PayerID        string   `json:"payerId"`
	Amount         int64    `json:"amount"`
	BeneficiaryIDs []string `json:"beneficiaryIds"`
	Note           string   `json:"note"`
}

func toGroup(g *models.Group) *Group {
	return &Group{ID: g.ID, Name: g.Name, CreatedAt: g.CreatedAt}
}

func toParticipants(participants []*models.Participant) []*Participant {
	out := make([]*Participant, len(participants))
	for i, p := range participants {
		out[i] = &Participant{ID: p.ID, GroupID: p.GroupID, Name: p.Name, CreatedAt: p.CreatedAt}
	}
	return out
}

func toPayment(p *models.Payment) *Payment {
	return &Payment{
		ID:             p.ID,
		GroupID:        p.GroupID,
		Title:          p.Title,
		Amount:         p.Amount,
		PayerID:        p.PayerID,
		BeneficiaryIDs: p.BeneficiaryIDs,
		CreatedAt:      p.CreatedAt,
	}
}

func toSettlement(s *models.Settlement) *Settlement {
	return &Settlement{
		ID:        s.ID,
		FromID:    s.FromID,
		ToID:      s.ToID,
		Amount:    s.Amount,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
	}
}

func toSettlements(settlements []*models.Settlement) []*Settlement {
	out := make([]*Settlement, len(settlements))
	for i, s := range settlements {
		out[i] = toSettlement(s)
	}
	return out
}
