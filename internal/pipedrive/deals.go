package pipedrive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

const (
	defaultDealTitle = "New GitHub Issue"
	personName       = "Offer"
)

// DealCreator mirrors issues into Pipedrive as deals attached to the
// customer's person record.
type DealCreator struct {
	client        *Client
	customerEmail string

	mu       sync.Mutex
	personID int64
}

func NewDealCreator(client *Client, customerEmail string) *DealCreator {
	return &DealCreator{
		client:        client,
		customerEmail: customerEmail,
	}
}

func (d *DealCreator) CreateDeal(ctx context.Context, title, description string) error {
	personID, err := d.resolvePerson(ctx)
	if err != nil {
		return err
	}

	if title == "" {
		title = defaultDealTitle
	}

	dealID, err := d.client.CreateDeal(ctx, title, personID)
	if err != nil {
		return err
	}
	slog.Info("created pipedrive deal", "deal_id", dealID, "person_id", personID, "title", title)

	if description == "" {
		return nil
	}
	if err := d.client.AddNote(ctx, dealID, description); err != nil {
		return fmt.Errorf("deal %d: %w", dealID, err)
	}
	return nil
}

// resolvePerson finds or creates the customer person. Only a successful
// lookup is remembered so transient failures are retried on the next deal.
func (d *DealCreator) resolvePerson(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.personID != 0 {
		return d.personID, nil
	}

	id, err := d.client.SearchPersonByEmail(ctx, d.customerEmail)
	if err != nil {
		return 0, fmt.Errorf("search person %s: %w", d.customerEmail, err)
	}
	if id == 0 {
		id, err = d.client.CreatePerson(ctx, personName, d.customerEmail)
		if err != nil {
			return 0, err
		}
		slog.Info("created pipedrive person", "person_id", id)
	}

	d.personID = id
	return id, nil
}
