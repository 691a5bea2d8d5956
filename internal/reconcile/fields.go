package reconcile

import (
	"github.com/tidwall/gjson"

	"github.com/lxc/incus-os/nvme-config/internal/topology"
)

// View selects which serialization a field is emitted for.
type View int

// Available views.
const (
	// ViewConfig is the persisted configuration.
	ViewConfig View = iota

	// ViewStatus is the diagnostic dump of the live topology.
	ViewStatus
)

// fieldRule is one entry of the port field table.
type fieldRule interface {
	fieldName() string
	mergeIfUnset(c *topology.Controller, value gjson.Result)
	emitIfSet(c *topology.Controller, o *object, view View)
}

// rule maps a document field to a controller attribute with an "unset" sentinel.
type rule[T comparable] struct {
	name  string
	unset T
	parse func(gjson.Result) T
	get   func(*topology.Controller) T
	set   func(*topology.Controller, T)
	omit  func(*topology.Controller, View) bool
}

func intField(name string, unset int, get func(*topology.Controller) int, set func(*topology.Controller, int)) rule[int] {
	return rule[int]{
		name:  name,
		unset: unset,
		parse: func(v gjson.Result) int { return int(v.Int()) },
		get:   get,
		set:   set,
	}
}

func boolField(name string, get func(*topology.Controller) bool, set func(*topology.Controller, bool)) rule[bool] {
	return rule[bool]{
		name:  name,
		parse: gjson.Result.Bool,
		get:   get,
		set:   set,
	}
}

// omitWhen returns the rule with an extra emission condition.
func (r rule[T]) omitWhen(omit func(*topology.Controller, View) bool) rule[T] {
	r.omit = omit

	return r
}

func (r rule[T]) fieldName() string {
	return r.name
}

// mergeIfUnset never overwrites a value that was already configured.
func (r rule[T]) mergeIfUnset(c *topology.Controller, value gjson.Result) {
	if r.get(c) != r.unset {
		return
	}

	r.set(c, r.parse(value))
}

func (r rule[T]) emitIfSet(c *topology.Controller, o *object, view View) {
	if r.omit != nil && r.omit(c, view) {
		return
	}

	v := r.get(c)
	if v == r.unset {
		return
	}

	o.set(r.name, v)
}

// Loop controllers have no use for the loss timeouts.
func isLoop(c *topology.Controller, _ View) bool {
	return c.Transport() == topology.TransportLoop
}

// The status view only reports TLS for TCP controllers.
func isStatusNonTCP(c *topology.Controller, view View) bool {
	return view == ViewStatus && c.Transport() != topology.TransportTCP
}

var portFields = []fieldRule{
	intField("nr_io_queues", 0,
		func(c *topology.Controller) int { return c.Config.NrIOQueues },
		func(c *topology.Controller, v int) { c.Config.NrIOQueues = v }),
	intField("nr_write_queues", 0,
		func(c *topology.Controller) int { return c.Config.NrWriteQueues },
		func(c *topology.Controller, v int) { c.Config.NrWriteQueues = v }),
	intField("nr_poll_queues", 0,
		func(c *topology.Controller) int { return c.Config.NrPollQueues },
		func(c *topology.Controller, v int) { c.Config.NrPollQueues = v }),
	intField("queue_size", 0,
		func(c *topology.Controller) int { return c.Config.QueueSize },
		func(c *topology.Controller, v int) { c.Config.QueueSize = v }),
	intField("keep_alive_tmo", 0,
		func(c *topology.Controller) int { return c.Config.KeepAliveTmo },
		func(c *topology.Controller, v int) { c.Config.KeepAliveTmo = v }),
	intField("reconnect_delay", 0,
		func(c *topology.Controller) int { return c.Config.ReconnectDelay },
		func(c *topology.Controller, v int) { c.Config.ReconnectDelay = v }),
	intField("ctrl_loss_tmo", topology.DefaultCtrlLossTmo,
		func(c *topology.Controller) int { return c.Config.CtrlLossTmo },
		func(c *topology.Controller, v int) { c.Config.CtrlLossTmo = v }).omitWhen(isLoop),
	intField("fast_io_fail_tmo", 0,
		func(c *topology.Controller) int { return c.Config.FastIOFailTmo },
		func(c *topology.Controller, v int) { c.Config.FastIOFailTmo = v }).omitWhen(isLoop),
	intField("tos", topology.DefaultTOS,
		func(c *topology.Controller) int { return c.Config.TOS },
		func(c *topology.Controller, v int) { c.Config.TOS = v }),
	boolField("duplicate_connect",
		func(c *topology.Controller) bool { return c.Config.DuplicateConnect },
		func(c *topology.Controller, v bool) { c.Config.DuplicateConnect = v }),
	boolField("disable_sqflow",
		func(c *topology.Controller) bool { return c.Config.DisableSQFlow },
		func(c *topology.Controller, v bool) { c.Config.DisableSQFlow = v }),
	boolField("hdr_digest",
		func(c *topology.Controller) bool { return c.Config.HdrDigest },
		func(c *topology.Controller, v bool) { c.Config.HdrDigest = v }),
	boolField("data_digest",
		func(c *topology.Controller) bool { return c.Config.DataDigest },
		func(c *topology.Controller, v bool) { c.Config.DataDigest = v }),
	boolField("tls",
		func(c *topology.Controller) bool { return c.Config.TLS },
		func(c *topology.Controller, v bool) { c.Config.TLS = v }).omitWhen(isStatusNonTCP),
	boolField("concat",
		func(c *topology.Controller) bool { return c.Config.Concat },
		func(c *topology.Controller, v bool) { c.Config.Concat = v }),
	boolField("persistent",
		func(c *topology.Controller) bool { return c.Persistent },
		func(c *topology.Controller, v bool) { c.Persistent = v }),
	boolField("discovery",
		func(c *topology.Controller) bool { return c.Discovery },
		func(c *topology.Controller, v bool) { c.Discovery = v }),
}

// mergeFields applies every document field present in fields through the table.
func mergeFields(c *topology.Controller, fields map[string]gjson.Result) {
	for _, f := range portFields {
		value, ok := fields[f.fieldName()]
		if !ok || value.Type == gjson.Null {
			continue
		}

		f.mergeIfUnset(c, value)
	}
}

// emitFields adds every configured field to o.
func emitFields(c *topology.Controller, o *object, view View) {
	for _, f := range portFields {
		f.emitIfSet(c, o, view)
	}
}
