// ABOUTME: Default dataset written on first run
// ABOUTME: Gives a fresh install a small, coherent sample of every collection
package cache

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harperreed/bizcrm/models"
)

// Dataset is the full set of default records.
type Dataset struct {
	Contacts      []models.Contact
	Deals         []models.Deal
	Tasks         []models.Task
	Invoices      []models.Invoice
	Expenses      []models.Expense
	Activities    []models.Activity
	Profile       models.UserProfile
	Presets       []models.ProductPreset
	InvoiceConfig models.InvoiceConfig
}

// DefaultDataset builds the seed data with dates relative to now. IDs are
// fixed so references between seeded records stay valid.
func DefaultDataset(now time.Time) Dataset {
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format(time.DateOnly)
	}
	year := now.Year()

	return Dataset{
		Contacts: []models.Contact{
			{
				ID:          "seed-contact-1",
				Name:        "Sarah Miller",
				Role:        "CEO",
				Company:     "Northwind Traders",
				Email:       "sarah@northwind.example",
				LastContact: day(-3),
			},
			{
				ID:          "seed-contact-2",
				Name:        "David Chen",
				Role:        "Head of Marketing",
				Company:     "Blue Harbor Studio",
				Email:       "david@blueharbor.example",
				LastContact: day(-10),
				Notes:       "Prefers calls in the morning",
			},
			{
				ID:          "seed-contact-3",
				Name:        "Lena Fischer",
				Role:        "CTO",
				Company:     "Fischer Logistik",
				Email:       "lena@fischer.example",
				LastContact: day(-21),
				Link:        "https://fischer.example",
			},
		},
		Deals: []models.Deal{
			{ID: "seed-deal-1", Title: "Website relaunch", Value: decimal.NewFromInt(12000), Stage: models.StageProposal, ContactID: "seed-contact-1", DueDate: day(14)},
			{ID: "seed-deal-2", Title: "Brand workshop", Value: decimal.NewFromInt(3500), Stage: models.StageContacted, ContactID: "seed-contact-2", DueDate: day(30)},
			{ID: "seed-deal-3", Title: "Fleet dashboard", Value: decimal.NewFromInt(28000), Stage: models.StageLead, ContactID: "seed-contact-3", DueDate: day(60)},
		},
		Tasks: []models.Task{
			{ID: "seed-task-1", Title: "Follow up on proposal", Type: models.TaskCall, DueDate: day(1), Priority: models.PriorityHigh, ContactID: "seed-contact-1"},
			{ID: "seed-task-2", Title: "Send workshop agenda", Type: models.TaskEmail, DueDate: day(2), Priority: models.PriorityMedium, ContactID: "seed-contact-2"},
			{ID: "seed-task-3", Title: "Discovery meeting", Type: models.TaskMeeting, DueDate: day(5), Priority: models.PriorityMedium, StartTime: "10:00", EndTime: "11:00", ContactID: "seed-contact-3"},
		},
		Invoices: []models.Invoice{
			{
				ID:          "seed-invoice-1",
				Number:      fmt.Sprintf("%04d-101", year),
				Date:        day(-20),
				ContactID:   "seed-contact-1",
				Description: "Website audit",
				Amount:      decimal.NewFromInt(1800),
				IsPaid:      true,
				PaidDate:    day(-5),
				SentDate:    day(-20),
				Type:        models.InvoiceNormal,
			},
		},
		Expenses: []models.Expense{
			{ID: "seed-expense-1", Title: "Design software", Amount: decimal.RequireFromString("59.99"), Date: day(-7), Category: models.CategorySoftware},
		},
		Activities: []models.Activity{
			{
				ID:          "seed-activity-1",
				Type:        models.ActivitySystem,
				Title:       "Welcome",
				Description: "Sample data has been created for you",
				Timestamp:   now.UTC().Truncate(time.Second),
			},
		},
		Profile: models.UserProfile{
			FirstName: "Alex",
			LastName:  "Morgan",
			Email:     "alex@example.com",
			Company:   "Morgan Consulting",
			Role:      "Owner",
		},
		Presets: []models.ProductPreset{
			{ID: "seed-preset-1", Name: "Consulting hour", Price: decimal.NewFromInt(120)},
			{ID: "seed-preset-2", Name: "Workshop day", Price: decimal.NewFromInt(1400)},
		},
		InvoiceConfig: models.InvoiceConfig{
			CompanyName: "Morgan Consulting",
			Address:     "1 Market Street, Springfield",
			Email:       "billing@example.com",
			FooterText:  "Payable within 14 days",
		},
	}
}
