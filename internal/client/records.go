package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/internhub/bulkimport/internal/optimistic"
	"github.com/internhub/bulkimport/internal/storage"
)

// ListRecords fetches the session institution's records for a variant.
func (c *Client) ListRecords(ctx context.Context, variant, institutionOverride string) ([]storage.Record, error) {
	institutionID, err := c.sess.InstitutionID(institutionOverride)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Records []storage.Record `json:"records"`
	}
	path := "/api/records/" + variant + "?institutionId=" + institutionID
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// SetRecordActive toggles a record's active flag server-side.
func (c *Client) SetRecordActive(ctx context.Context, variant, recordID string, active bool) error {
	payload, _ := json.Marshal(map[string]bool{"active": active})
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.baseURL+"/api/records/"+variant+"/"+recordID, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

// DeleteRecord removes a record server-side.
func (c *Client) DeleteRecord(ctx context.Context, variant, recordID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/records/"+variant+"/"+recordID, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

// RecordList is a locally cached record list that applies toggles and
// deletions optimistically: the list mutates immediately and reverts if the
// server rejects the change.
type RecordList struct {
	client  *Client
	variant string
	Records []storage.Record
}

// NewRecordList loads the current records for a variant into a cache.
func (c *Client) NewRecordList(ctx context.Context, variant, institutionOverride string) (*RecordList, error) {
	records, err := c.ListRecords(ctx, variant, institutionOverride)
	if err != nil {
		return nil, err
	}
	return &RecordList{client: c, variant: variant, Records: records}, nil
}

// Toggle flips a record's active flag locally, confirming with the server
// and reverting on failure.
func (l *RecordList) Toggle(ctx context.Context, recordID string) error {
	var target *storage.Record
	for i := range l.Records {
		if l.Records[i].ID == recordID {
			target = &l.Records[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("record %s not in list", recordID)
	}
	next := !target.Active

	return optimistic.Update(ctx, &l.Records,
		func(items []storage.Record) []storage.Record {
			for i := range items {
				if items[i].ID == recordID {
					items[i].Active = next
				}
			}
			return items
		},
		func(ctx context.Context) error {
			return l.client.SetRecordActive(ctx, l.variant, recordID, next)
		},
	)
}

// Delete removes a record locally, confirming with the server and restoring
// the list on failure.
func (l *RecordList) Delete(ctx context.Context, recordID string) error {
	return optimistic.Remove(ctx, &l.Records,
		func(r storage.Record) bool { return r.ID == recordID },
		func(ctx context.Context) error {
			return l.client.DeleteRecord(ctx, l.variant, recordID)
		},
	)
}
