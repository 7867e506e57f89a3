// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, Deal, Expense, Activity and the singleton config records
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// NewID returns a client-generated entity ID.
func NewID() string {
	return uuid.New().String()
}

// NewActivityID returns a time-sortable ID so notifications order by creation.
func NewActivityID() string {
	return ulid.Make().String()
}

type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	Company     string `json:"company,omitempty"`
	Email       string `json:"email,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	LastContact string `json:"lastContact,omitempty"` // YYYY-MM-DD
	Notes       string `json:"notes,omitempty"`
	Link        string `json:"link,omitempty"`
}

type Deal struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Value     decimal.Decimal `json:"value"`
	Stage     DealStage       `json:"stage"`
	ContactID string          `json:"contactId,omitempty"`
	DueDate   string          `json:"dueDate,omitempty"`
}

// DealStage is one of a fixed, ordered set of pipeline stages.
type DealStage string

const (
	StageLead        DealStage = "Lead"
	StageContacted   DealStage = "Contacted"
	StageProposal    DealStage = "Proposal"
	StageNegotiation DealStage = "Negotiation"
	StageWon         DealStage = "Won"
)

// DealStages lists the pipeline in order.
var DealStages = []DealStage{StageLead, StageContacted, StageProposal, StageNegotiation, StageWon}

// Index returns the position of the stage in the pipeline, or -1 if unknown.
func (s DealStage) Index() int {
	for i, stage := range DealStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	return s.Index() >= 0
}

// Next returns the following stage. Won and unknown stages return themselves.
func (s DealStage) Next() DealStage {
	i := s.Index()
	if i < 0 || i == len(DealStages)-1 {
		return s
	}
	return DealStages[i+1]
}

type Expense struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	Category   ExpenseCategory `json:"category"`
	Attachment *Attachment     `json:"attachment,omitempty"`
	ContactID  string          `json:"contactId,omitempty"`
}

// Attachment is an inline file stored as base64.
type Attachment struct {
	Data     string `json:"data"`
	FileName string `json:"fileName"`
}

type ExpenseCategory string

const (
	CategoryOffice    ExpenseCategory = "office"
	CategoryTravel    ExpenseCategory = "travel"
	CategorySoftware  ExpenseCategory = "software"
	CategoryMarketing ExpenseCategory = "marketing"
	CategoryHardware  ExpenseCategory = "hardware"
	CategoryOther     ExpenseCategory = "other"
)

// Valid reports whether c belongs to the closed category set.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryOffice, CategoryTravel, CategorySoftware, CategoryMarketing, CategoryHardware, CategoryOther:
		return true
	}
	return false
}

// Activity is a timestamped notification.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	IsRead      bool      `json:"isRead"`
}

// Activity type constants.
const (
	ActivityDealWon      = "deal_won"
	ActivityInvoicePaid  = "invoice_paid"
	ActivityInvoiceVoid  = "invoice_cancelled"
	ActivityCalendarSync = "calendar_sync"
	ActivityMailScan     = "mail_scan"
	ActivitySystem       = "system"
)

type UserProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	Company   string `json:"company,omitempty"`
	Role      string `json:"role,omitempty"`
}

// FullName joins first and last name.
func (p UserProfile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type ProductPreset struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type InvoiceConfig struct {
	CompanyName  string `json:"companyName"`
	Address      string `json:"address,omitempty"`
	TaxID        string `json:"taxId,omitempty"`
	IBAN         string `json:"iban,omitempty"`
	BIC          string `json:"bic,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	FooterText   string `json:"footerText,omitempty"`
	NumberPrefix string `json:"numberPrefix,omitempty"`
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState records the outcome of the last calendar pull.
type SyncState struct {
	Service      string     `json:"service"`
	Status       string     `json:"status"`
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Imported     int        `json:"imported"`
	Updated      int        `json:"updated"`
}

// ID methods let the generic cache address every collection the same way.

func (c Contact) GetID() string       { return c.ID }
func (d Deal) GetID() string          { return d.ID }
func (t Task) GetID() string          { return t.ID }
func (i Invoice) GetID() string       { return i.ID }
func (e Expense) GetID() string       { return e.ID }
func (a Activity) GetID() string      { return a.ID }
func (p ProductPreset) GetID() string { return p.ID }
