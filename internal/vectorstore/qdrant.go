package vectorstore

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/aman-cerp/memsrv/internal/errs"
)

// payload field keys for the universal schema.
const (
	fieldMemoryID       = "memory_id"
	fieldProjectID      = "project_id"
	fieldMemoryType     = "memory_type"
	fieldTimestamp      = "timestamp"
	fieldSourceURI      = "source_uri"
	fieldChunkHash      = "chunk_hash"
	fieldTags           = "tags"
	fieldText           = "text"
	fieldSourceMemories = "source_memory_ids"
	fieldSummaryKey     = "summary_key"
)

// Store is the Vector Store Adapter's capability interface (spec §4.6).
type Store interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	CreatePayloadIndexes(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, points []Memory) (UpsertResult, error)
	Query(ctx context.Context, name string, vector []float32, filter Filter, limit int, scoreThreshold *float64) ([]Hit, error)
	Scroll(ctx context.Context, name string, filter Filter, pageSize int) (Cursor, error)
	ListCollections(ctx context.Context) ([]string, error)
	Close() error
}

// QdrantStore is the only component that speaks Qdrant's gRPC wire
// protocol, grounded on the corpus's qdrant_vector.go client usage.
type QdrantStore struct {
	client *qdrant.Client
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore connects to Qdrant over gRPC. dsn accepts an optional
// "api_key" query parameter, e.g. "http://localhost:6334?api_key=...".
func NewQdrantStore(dsn, apiKey string) (*QdrantStore, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, errs.StoreUnavailablef("invalid QDRANT_URL %q: %v", dsn, err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, errs.StoreUnavailablef("invalid port in QDRANT_URL %q: %v", dsn, err)
	}

	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey == "" {
		apiKey = parsed.Query().Get("api_key")
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, errs.StoreUnavailablef("connect to qdrant at %s: %v", dsn, err)
	}
	return &QdrantStore{client: client}, nil
}

// EnsureCollection creates the collection if absent. If present with a
// different vector dimension it returns dimension_mismatch rather than
// silently resizing a populated collection.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return errs.InvalidParamsf("collection dimension must be positive, got %d", dimension)
	}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return errs.StoreUnavailablef("check collection %q exists: %v", name, err)
	}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, name)
		if err != nil {
			return errs.StoreUnavailablef("inspect collection %q: %v", name, err)
		}
		existing := vectorSize(info)
		if existing != 0 && existing != uint64(dimension) {
			return errs.DimensionMismatchf("collection %q already exists with dimension %d, requested %d", name, existing, dimension)
		}
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return errs.StoreUnavailablef("create collection %q: %v", name, err)
	}
	return nil
}

func vectorSize(info *qdrant.CollectionInfo) uint64 {
	if info == nil || info.Config == nil || info.Config.Params == nil {
		return 0
	}
	vc := info.Config.Params.VectorsConfig
	if vc == nil {
		return 0
	}
	if params := vc.GetParams(); params != nil {
		return params.GetSize()
	}
	return 0
}

// CreatePayloadIndexes idempotently provisions indexes for the fields the
// filter builder and scroll-based catalog rely on.
func (s *QdrantStore) CreatePayloadIndexes(ctx context.Context, name string) error {
	indexes := []struct {
		field string
		typ   qdrant.FieldType
	}{
		{fieldProjectID, qdrant.FieldType_FieldTypeKeyword},
		{fieldMemoryType, qdrant.FieldType_FieldTypeKeyword},
		{fieldTags, qdrant.FieldType_FieldTypeKeyword},
		{fieldTimestamp, qdrant.FieldType_FieldTypeDatetime},
		{fieldChunkHash, qdrant.FieldType_FieldTypeKeyword},
	}
	for _, idx := range indexes {
		fieldType := idx.typ
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      idx.field,
			FieldType:      &fieldType,
		})
		if err != nil && !alreadyExists(err) {
			return errs.StoreUnavailablef("create payload index %q on %q: %v", idx.field, name, err)
		}
	}
	return nil
}

func alreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// pointID derives a deterministic Qdrant point ID from a memory's content
// hash, so re-ingesting the same chunk_hash updates the same point instead
// of creating a duplicate (spec §4.6 upsert semantics).
func pointID(memoryID string) *qdrant.PointId {
	if _, err := uuid.Parse(memoryID); err == nil {
		return qdrant.NewIDUUID(memoryID)
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(memoryID)).String())
}

// Upsert writes points keyed by chunk_hash-derived point ID, returning how
// many were new vs. already present.
func (s *QdrantStore) Upsert(ctx context.Context, name string, points []Memory) (UpsertResult, error) {
	if len(points) == 0 {
		return UpsertResult{}, nil
	}

	ids := make([]*qdrant.PointId, len(points))
	for i, m := range points {
		ids[i] = pointID(m.ChunkHash)
	}
	existing, err := s.existingIDs(ctx, name, ids)
	if err != nil {
		return UpsertResult{}, err
	}

	qpoints := make([]*qdrant.PointStruct, len(points))
	for i, m := range points {
		qpoints[i] = &qdrant.PointStruct{
			Id:      ids[i],
			Vectors: qdrant.NewVectorsDense(m.Vector),
			Payload: toPayload(m),
		}
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         qpoints,
	})
	if err != nil {
		return UpsertResult{}, errs.StoreUnavailablef("upsert %d points into %q: %v", len(points), name, err)
	}

	result := UpsertResult{}
	for _, id := range ids {
		if existing[id.String()] {
			result.Updated++
		} else {
			result.Inserted++
		}
	}
	return result, nil
}

func (s *QdrantStore) existingIDs(ctx context.Context, name string, ids []*qdrant.PointId) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: name,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return found, errs.StoreUnavailablef("check existing points in %q: %v", name, err)
	}
	for _, p := range points {
		found[p.Id.String()] = true
	}
	return found, nil
}

func toPayload(m Memory) map[string]*qdrant.Value {
	payload := map[string]any{
		fieldMemoryID:   m.MemoryID,
		fieldProjectID:  m.ProjectID,
		fieldMemoryType: m.MemoryType,
		fieldTimestamp:  m.Timestamp.Format(time.RFC3339),
		fieldChunkHash:  m.ChunkHash,
		fieldText:       m.Text,
	}
	if m.SourceURI != "" {
		payload[fieldSourceURI] = m.SourceURI
	}
	if len(m.Tags) > 0 {
		tags := make([]any, len(m.Tags))
		for i, t := range m.Tags {
			tags[i] = t
		}
		payload[fieldTags] = tags
	}
	if len(m.SourceMemoryIDs) > 0 {
		ids := make([]any, len(m.SourceMemoryIDs))
		for i, id := range m.SourceMemoryIDs {
			ids[i] = id
		}
		payload[fieldSourceMemories] = ids
	}
	if m.SummaryKey != "" {
		payload[fieldSummaryKey] = m.SummaryKey
	}
	return qdrant.NewValueMap(payload)
}

func fromPayload(id string, payload map[string]*qdrant.Value, vector []float32) Memory {
	m := Memory{MemoryID: id, Vector: vector}
	if v, ok := payload[fieldMemoryID]; ok {
		m.MemoryID = v.GetStringValue()
	}
	if v, ok := payload[fieldProjectID]; ok {
		m.ProjectID = v.GetStringValue()
	}
	if v, ok := payload[fieldMemoryType]; ok {
		m.MemoryType = v.GetStringValue()
	}
	if v, ok := payload[fieldTimestamp]; ok {
		if ts, err := time.Parse(time.RFC3339, v.GetStringValue()); err == nil {
			m.Timestamp = ts
		}
	}
	if v, ok := payload[fieldSourceURI]; ok {
		m.SourceURI = v.GetStringValue()
	}
	if v, ok := payload[fieldChunkHash]; ok {
		m.ChunkHash = v.GetStringValue()
	}
	if v, ok := payload[fieldText]; ok {
		m.Text = v.GetStringValue()
	}
	if v, ok := payload[fieldSummaryKey]; ok {
		m.SummaryKey = v.GetStringValue()
	}
	if v, ok := payload[fieldTags]; ok {
		for _, item := range v.GetListValue().GetValues() {
			m.Tags = append(m.Tags, item.GetStringValue())
		}
	}
	if v, ok := payload[fieldSourceMemories]; ok {
		for _, item := range v.GetListValue().GetValues() {
			m.SourceMemoryIDs = append(m.SourceMemoryIDs, item.GetStringValue())
		}
	}
	return m
}

func buildFilter(f Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var must []*qdrant.Condition
	if f.ProjectID != "" {
		must = append(must, qdrant.NewMatch(fieldProjectID, f.ProjectID))
	}
	if f.MemoryType != "" {
		must = append(must, qdrant.NewMatch(fieldMemoryType, f.MemoryType))
	}
	if len(f.Tags) > 0 {
		must = append(must, qdrant.NewMatchKeywords(fieldTags, f.Tags...))
	}
	if f.Time != nil {
		rng := &qdrant.DatetimeRange{}
		if !f.Time.Start.IsZero() {
			ts := f.Time.Start
			rng.Gte = &ts
		}
		if !f.Time.End.IsZero() {
			ts := f.Time.End
			rng.Lte = &ts
		}
		must = append(must, qdrant.NewDatetimeRange(fieldTimestamp, rng))
	}

	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// Query runs a similarity search, returning scored hits ordered by score
// descending.
func (s *QdrantStore) Query(ctx context.Context, name string, vector []float32, filter Filter, limit int, scoreThreshold *float64) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	l := uint64(limit)

	req := &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &l,
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if scoreThreshold != nil {
		threshold := float32(*scoreThreshold)
		req.ScoreThreshold = &threshold
	}

	results, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, errs.StoreUnavailablef("query collection %q: %v", name, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		id := r.Id.GetUuid()
		if id == "" {
			id = r.Id.String()
		}
		hits = append(hits, Hit{
			Memory: fromPayload(id, r.Payload, nil),
			Score:  float64(r.Score),
		})
	}
	return hits, nil
}

// ScrollCursor is a finite, non-restartable lazy sequence over a
// collection's points.
type ScrollCursor struct {
	client     *qdrant.Client
	collection string
	filter     *qdrant.Filter
	pageSize   uint64
	offset     *qdrant.PointId
	done       bool
}

// Next returns the next page of memories, or (nil, false) once the scroll
// is exhausted.
func (c *ScrollCursor) Next(ctx context.Context) ([]Memory, bool, error) {
	if c.done {
		return nil, false, nil
	}

	limit := uint32(c.pageSize)
	resp, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.collection,
		Filter:         c.filter,
		Limit:          &limit,
		Offset:         c.offset,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, false, errs.StoreUnavailablef("scroll collection %q: %v", c.collection, err)
	}

	memories := make([]Memory, 0, len(resp))
	for _, p := range resp {
		id := p.Id.GetUuid()
		if id == "" {
			id = p.Id.String()
		}
		memories = append(memories, fromPayload(id, p.Payload, nil))
	}

	if uint64(len(resp)) < c.pageSize || len(resp) == 0 {
		c.done = true
	} else {
		c.offset = resp[len(resp)-1].Id
	}
	return memories, len(memories) > 0, nil
}

// Scroll starts a bounded, lazily-paged enumeration over a collection.
func (s *QdrantStore) Scroll(_ context.Context, name string, filter Filter, pageSize int) (Cursor, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ScrollCursor{
		client:     s.client,
		collection: name,
		filter:     buildFilter(filter),
		pageSize:   uint64(pageSize),
	}, nil
}

// ListCollections returns every collection name known to the cluster.
func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, errs.StoreUnavailablef("list collections: %v", err)
	}
	return collections, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
