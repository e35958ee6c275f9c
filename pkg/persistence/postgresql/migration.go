package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE flows (
				id UUID PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				version VARCHAR(50) NOT NULL DEFAULT '1',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'archived')),
				created_by VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_flows_organization_id ON flows(organization_id);
			CREATE INDEX idx_flows_status ON flows(status);
			CREATE INDEX idx_flows_updated_at ON flows(updated_at);

			CREATE TABLE flow_nodes (
				flow_id UUID NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				config JSONB DEFAULT '{}',
				position_x INT DEFAULT 0,
				position_y INT DEFAULT 0,
				metadata JSONB,
				ordinal INT NOT NULL DEFAULT 0,
				PRIMARY KEY (flow_id, id)
			);

			CREATE INDEX idx_flow_nodes_flow_id ON flow_nodes(flow_id);
			CREATE INDEX idx_flow_nodes_type ON flow_nodes(node_type);

			CREATE TABLE flow_edges (
				flow_id UUID NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				source_node_id VARCHAR(255) NOT NULL,
				target_node_id VARCHAR(255) NOT NULL,
				condition_label VARCHAR(255) NOT NULL DEFAULT '',
				ordinal INT NOT NULL DEFAULT 0,
				PRIMARY KEY (flow_id, id)
			);

			CREATE INDEX idx_flow_edges_flow_id ON flow_edges(flow_id);
			CREATE INDEX idx_flow_edges_source ON flow_edges(source_node_id);

			CREATE TABLE flow_executions (
				id UUID PRIMARY KEY,
				flow_id UUID NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
				organization_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'completed', 'failed', 'simulated')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				logs JSONB NOT NULL DEFAULT '[]',
				context JSONB NOT NULL DEFAULT '{}'
			);

			CREATE INDEX idx_flow_executions_flow_id ON flow_executions(flow_id);
			CREATE INDEX idx_flow_executions_organization_id ON flow_executions(organization_id);
			CREATE INDEX idx_flow_executions_started_at ON flow_executions(started_at);
		`,
	}
}
