package basic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// Record is one schema-typed document. Beyond its declared fields, every
// stored record carries the reserved id and created_at fields, assigned by
// the store.
type Record map[string]any

// ID returns the record's store-assigned id, or "" if absent.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Collection issues the CRUD operations against one named collection. It is
// created via Client.Collection and holds no request state of its own; the
// bearer token is obtained per call from the token supplier.
type Collection struct {
	name       string
	table      Table
	url        string
	httpClient *http.Client
	tokens     TokenSupplier
	logger     *slog.Logger
}

// Name returns the collection's table name.
func (c *Collection) Name() string { return c.name }

// envelope wraps every successful API response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorBody is the structured error shape the API uses on failures.
type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// valuePayload wraps record fields on create and update requests.
type valuePayload struct {
	Value Record `json:"value"`
}

// List fetches every record in the collection. Narrowing, ordering and
// pagination happen client side via Query.
func (c *Collection) List(ctx context.Context) ([]Record, error) {
	data, err := c.do(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeRecords(data)
}

// Get fetches one record by its store-assigned id.
func (c *Collection) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return nil, validationErrorf("record id is required")
	}
	data, err := c.do(ctx, http.MethodGet, c.url+"?id="+url.QueryEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeRecord(data)
}

// Create stores a new record. The id is assigned by the store; supplying one
// is rejected before any request is made.
func (c *Collection) Create(ctx context.Context, fields Record) (Record, error) {
	if err := c.checkWriteFields(fields, false); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, c.url, valuePayload{Value: fields})
	if err != nil {
		return nil, err
	}
	return c.decodeRecord(data)
}

// Update patches a record: only the provided fields change, everything else
// is left as stored.
func (c *Collection) Update(ctx context.Context, id string, fields Record) (Record, error) {
	if id == "" {
		return nil, validationErrorf("record id is required")
	}
	if err := c.checkWriteFields(fields, false); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPatch, c.url+"/"+url.PathEscape(id), valuePayload{Value: fields})
	if err != nil {
		return nil, err
	}
	return c.decodeRecord(data)
}

// Replace overwrites a record with the given full field set. This is not a
// merge: fields omitted from the payload are not guaranteed to survive, so
// callers must supply every field they want retained.
func (c *Collection) Replace(ctx context.Context, id string, fields Record) (Record, error) {
	if id == "" {
		return nil, validationErrorf("record id is required")
	}
	if err := c.checkWriteFields(fields, false); err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPut, c.url+"/"+url.PathEscape(id), valuePayload{Value: fields})
	if err != nil {
		return nil, err
	}
	return c.decodeRecord(data)
}

// Delete removes a record by id.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return validationErrorf("record id is required")
	}
	_, err := c.do(ctx, http.MethodDelete, c.url+"/"+url.PathEscape(id), nil)
	return err
}

// Query starts a client-side filter/order/paginate chain over this
// collection's full record set.
func (c *Collection) Query() *Query {
	return &Query{collection: c}
}

// checkWriteFields validates outgoing fields against the schema before any
// network activity. Reserved fields are never caller-supplied.
func (c *Collection) checkWriteFields(fields Record, allowReserved bool) error {
	for name, value := range fields {
		if !allowReserved && (name == FieldID || name == FieldCreatedAt) {
			return validationErrorf("field %q is reserved and assigned by the store", name)
		}
		if _, declared := c.table.Fields[name]; !declared {
			return validationErrorf("unknown field %q in table %q", name, c.name)
		}
		if err := c.table.checkValue(name, normalizeValue(value)); err != nil {
			return err
		}
	}
	return nil
}

// do issues one authenticated request and unwraps the {data: ...} envelope.
func (c *Collection) do(ctx context.Context, method, requestURL string, body any) (json.RawMessage, error) {
	token, err := c.tokens(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: requestURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := resp.Status
		var structured apiErrorBody
		if jsonErr := json.Unmarshal(respBody, &structured); jsonErr == nil {
			if structured.Error != "" {
				message = structured.Error
			} else if structured.Message != "" {
				message = structured.Message
			}
		}
		c.logger.Debug("request rejected", "table", c.name, "method", method, "status", resp.StatusCode)
		return nil, &RequestError{Status: resp.StatusCode, Body: respBody, Message: message}
	}

	if len(respBody) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &RequestError{Body: respBody, Message: "response is not a data envelope"}
	}
	return env.Data, nil
}

// decodeRecord parses one record and checks its fields against the schema.
func (c *Collection) decodeRecord(data json.RawMessage) (Record, error) {
	if len(data) == 0 {
		return nil, &RequestError{Message: "response envelope missing record"}
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &RequestError{Body: data, Message: "record has unexpected shape"}
	}
	for name, value := range rec {
		if err := c.table.checkValue(name, value); err != nil {
			return nil, &RequestError{Body: data, Message: fmt.Sprintf("record failed schema check: %v", err)}
		}
	}
	return rec, nil
}

// decodeRecords parses a record list, tolerating a single-object payload.
func (c *Collection) decodeRecords(data json.RawMessage) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Some deployments return a lone object for single-row tables.
		rec, recErr := c.decodeRecord(data)
		if recErr != nil {
			return nil, &RequestError{Body: data, Message: "record list has unexpected shape"}
		}
		return []Record{rec}, nil
	}
	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		rec, err := c.decodeRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeValue maps Go-native numeric types onto the float64 shape the
// schema check expects for JSON numbers.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}
