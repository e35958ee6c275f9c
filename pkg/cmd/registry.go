package cmd

import (
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/actions/createsale"
	"github.com/fluxohq/fluxo/pkg/actions/notifyuser"
	"github.com/fluxohq/fluxo/pkg/actions/sendwhatsapp"
	"github.com/fluxohq/fluxo/pkg/actions/updatedealstatus"
	"github.com/fluxohq/fluxo/pkg/actions/updatestock"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
)

// Collaborators bundles the external subsystem clients the actions depend
// on. A nil field means the deployment does not provide that subsystem;
// the matching action is then not registered and flows referencing it get
// the unknown-action warning at runtime.
type Collaborators struct {
	Inventory     protocol.Inventory
	Sales         protocol.Sales
	Notifications protocol.Notifications
	Messenger     protocol.Messenger
	CRM           protocol.CRM
	AI            protocol.AI
}

// NewRegistry registers an action factory for every provided collaborator.
func NewRegistry(logger *slog.Logger, collaborators Collaborators) *registry.Registry {
	reg := registry.NewRegistry(logger)

	if collaborators.Inventory != nil {
		reg.RegisterAction(updatestock.NewActionFactory(collaborators.Inventory))
	}

	if collaborators.Sales != nil {
		reg.RegisterAction(createsale.NewActionFactory(collaborators.Sales))
	}

	if collaborators.Notifications != nil {
		reg.RegisterAction(notifyuser.NewActionFactory(collaborators.Notifications))
	}

	if collaborators.Messenger != nil {
		reg.RegisterAction(sendwhatsapp.NewActionFactory(collaborators.Messenger))
	}

	if collaborators.CRM != nil {
		reg.RegisterAction(updatedealstatus.NewActionFactory(collaborators.CRM))
	}

	return reg
}
