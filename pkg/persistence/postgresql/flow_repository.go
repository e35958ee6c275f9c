package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/google/uuid"
)

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ListFlows returns the organization's flow definitions without their
// graphs, most recently updated first.
func (r *FlowRepository) ListFlows(ctx context.Context, organizationID string) ([]*models.FlowDefinition, error) {
	query := `
		SELECT
			id
		  , organization_id
		  , name
		  , description
		  , version
		  , status
		  , created_by
		  , created_at
		  , updated_at
		FROM flows
		WHERE organization_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	flows := make([]*models.FlowDefinition, 0)

	for rows.Next() {
		flow, err := r.scanFlowBase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	return flows, nil
}

// FlowWithGraph returns a definition with its complete node and edge set.
// A flow owned by another organization reads as not found.
func (r *FlowRepository) FlowWithGraph(ctx context.Context, id, organizationID string) (*models.FlowDefinition, error) {
	query := `
		SELECT
			id
		  , organization_id
		  , name
		  , description
		  , version
		  , status
		  , created_by
		  , created_at
		  , updated_at
		FROM flows
		WHERE id = $1 AND organization_id = $2
	`

	row := r.db.QueryRowContext(ctx, query, id, organizationID)

	flow, err := r.scanFlowBase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, fmt.Errorf("failed to scan flow: %w", err)
	}

	if err := r.loadGraph(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to load flow graph: %w", err)
	}

	return flow, nil
}

// ListActiveFlows returns every active flow with its graph, across all
// organizations. The scheduler is the only caller.
func (r *FlowRepository) ListActiveFlows(ctx context.Context) ([]*models.FlowDefinition, error) {
	query := `
		SELECT
			id
		  , organization_id
		  , name
		  , description
		  , version
		  , status
		  , created_by
		  , created_at
		  , updated_at
		FROM flows
		WHERE status = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, models.FlowStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active flows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	flows := make([]*models.FlowDefinition, 0)

	for rows.Next() {
		flow, err := r.scanFlowBase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active flows: %w", err)
	}

	for _, flow := range flows {
		if err := r.loadGraph(ctx, flow); err != nil {
			return nil, fmt.Errorf("failed to load graph for flow %s: %w", flow.ID, err)
		}
	}

	return flows, nil
}

// SaveFlow upserts the definition row and replaces the node and edge sets
// with the given snapshot in a single transaction.
func (r *FlowRepository) SaveFlow(ctx context.Context, flow *models.FlowDefinition) error {
	now := time.Now().UTC()

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	if flow.Status == "" {
		flow.Status = models.FlowStatusDraft
	}

	if flow.Version == "" {
		flow.Version = "1"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	flowQuery := `
		INSERT INTO flows (id, organization_id, name, description, version, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			version = EXCLUDED.version,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		WHERE flows.organization_id = EXCLUDED.organization_id
	`

	result, err := tx.ExecContext(ctx, flowQuery,
		flow.ID,
		flow.OrganizationID,
		flow.Name,
		flow.Description,
		flow.Version,
		flow.Status,
		flow.CreatedBy,
		flow.CreatedAt,
		flow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save flow base: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		// Conflict on an id owned by another organization.
		err = persistence.ErrFlowNotFound

		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM flow_edges WHERE flow_id = $1", flow.ID); err != nil {
		return fmt.Errorf("failed to delete existing edges: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM flow_nodes WHERE flow_id = $1", flow.ID); err != nil {
		return fmt.Errorf("failed to delete existing nodes: %w", err)
	}

	if err = r.insertNodes(ctx, tx, flow); err != nil {
		return fmt.Errorf("failed to save flow nodes: %w", err)
	}

	if err = r.insertEdges(ctx, tx, flow); err != nil {
		return fmt.Errorf("failed to save flow edges: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *FlowRepository) scanFlowBase(scanner rowScanner) (*models.FlowDefinition, error) {
	var (
		flow      models.FlowDefinition
		createdBy sql.NullString
	)

	err := scanner.Scan(
		&flow.ID,
		&flow.OrganizationID,
		&flow.Name,
		&flow.Description,
		&flow.Version,
		&flow.Status,
		&createdBy,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	flow.CreatedBy = createdBy.String

	return &flow, nil
}

func (r *FlowRepository) loadGraph(ctx context.Context, flow *models.FlowDefinition) error {
	nodesQuery := `
		SELECT id, node_type, config, position_x, position_y, metadata
		FROM flow_nodes
		WHERE flow_id = $1
		ORDER BY ordinal
	`

	rows, err := r.db.QueryContext(ctx, nodesQuery, flow.ID)
	if err != nil {
		return fmt.Errorf("failed to query flow nodes: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	nodes := make([]*models.FlowNode, 0)

	for rows.Next() {
		var (
			node         models.FlowNode
			configJSON   []byte
			metadataJSON []byte
		)

		err := rows.Scan(
			&node.ID,
			&node.Type,
			&configJSON,
			&node.Position.X,
			&node.Position.Y,
			&metadataJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}

		node.FlowID = flow.ID

		if configJSON != nil {
			if err := json.Unmarshal(configJSON, &node.Config); err != nil {
				return fmt.Errorf("failed to unmarshal node config: %w", err)
			}
		}

		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &node.Metadata); err != nil {
				return fmt.Errorf("failed to unmarshal node metadata: %w", err)
			}
		}

		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}

	flow.Nodes = nodes

	edgesQuery := `
		SELECT id, source_node_id, target_node_id, condition_label
		FROM flow_edges
		WHERE flow_id = $1
		ORDER BY ordinal
	`

	edgeRows, err := r.db.QueryContext(ctx, edgesQuery, flow.ID)
	if err != nil {
		return fmt.Errorf("failed to query flow edges: %w", err)
	}

	defer func() {
		if err := edgeRows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	edges := make([]*models.FlowEdge, 0)

	for edgeRows.Next() {
		var edge models.FlowEdge

		err := edgeRows.Scan(
			&edge.ID,
			&edge.SourceNodeID,
			&edge.TargetNodeID,
			&edge.ConditionLabel,
		)
		if err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}

		edge.FlowID = flow.ID
		edges = append(edges, &edge)
	}

	if err := edgeRows.Err(); err != nil {
		return fmt.Errorf("error iterating edges: %w", err)
	}

	flow.Edges = edges

	return nil
}

func (r *FlowRepository) insertNodes(ctx context.Context, tx *sql.Tx, flow *models.FlowDefinition) error {
	query := `
		INSERT INTO flow_nodes (flow_id, id, node_type, config, position_x, position_y, metadata, ordinal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for i, node := range flow.Nodes {
		if node.ID == "" {
			node.ID = uuid.New().String()
		}

		node.FlowID = flow.ID

		configJSON, err := json.Marshal(node.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal config for node %s: %w", node.ID, err)
		}

		var metadataJSON []byte
		if node.Metadata != nil {
			metadataJSON, err = json.Marshal(node.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal metadata for node %s: %w", node.ID, err)
			}
		}

		_, err = tx.ExecContext(ctx, query,
			flow.ID,
			node.ID,
			node.Type,
			configJSON,
			node.Position.X,
			node.Position.Y,
			metadataJSON,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}

	return nil
}

func (r *FlowRepository) insertEdges(ctx context.Context, tx *sql.Tx, flow *models.FlowDefinition) error {
	query := `
		INSERT INTO flow_edges (flow_id, id, source_node_id, target_node_id, condition_label, ordinal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i, edge := range flow.Edges {
		if edge.ID == "" {
			edge.ID = uuid.New().String()
		}

		edge.FlowID = flow.ID

		_, err := tx.ExecContext(ctx, query,
			flow.ID,
			edge.ID,
			edge.SourceNodeID,
			edge.TargetNodeID,
			edge.ConditionLabel,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert edge %s: %w", edge.ID, err)
		}
	}

	return nil
}
