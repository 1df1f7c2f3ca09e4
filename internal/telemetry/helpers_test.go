package telemetry

import (
	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/core"
)

func newLocal() *memory.LocalStore[core.Note] {
	return memory.NewLocalStore[core.Note]()
}

func newRemote() *memory.RemoteStore[core.Note] {
	return memory.NewRemoteStore[core.Note]()
}
