package cmd

import (
	"log/slog"

	"github.com/zapdesk/automata/pkg/actions/crmstage"
	"github.com/zapdesk/automata/pkg/actions/orderstatus"
	"github.com/zapdesk/automata/pkg/actions/sendmessage"
	"github.com/zapdesk/automata/pkg/actions/tag"
	"github.com/zapdesk/automata/pkg/persistence"
	"github.com/zapdesk/automata/pkg/protocol"
	"github.com/zapdesk/automata/pkg/registry"
)

// NewRegistry builds the action registry with every native adapter bound to
// its collaborators.
func NewRegistry(logger *slog.Logger, messenger protocol.Messenger, crm protocol.CRMService, catalog persistence.Catalog) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterAction(sendmessage.NewFactory(messenger, catalog))
	reg.RegisterAction(tag.NewAddFactory(crm))
	reg.RegisterAction(tag.NewRemoveFactory(crm))
	reg.RegisterAction(crmstage.NewFactory(crm))
	reg.RegisterAction(orderstatus.NewFactory(crm))

	return reg
}
