package app

import "github.com/agentstation/idmend/internal/appcontext"

// Context is the interface commands receive.
type Context = appcontext.Interface

var _ Context = (*App)(nil)
