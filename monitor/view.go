// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package monitor

import (
	"encoding/xml"
	"time"

	"github.com/klement/clixon/datastore"
	"github.com/klement/clixon/yangspec"
)

// Namespace is the ietf-netconf-monitoring namespace spec.md §4.5
// requires the view's root element to carry.
const Namespace = "urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"

// Datastore is one row of the view's datastores subtree. RFC 6022
// nests a held lock's detail under a <locks> container rather than
// directly under <datastore>.
type Datastore struct {
	XMLName         xml.Name `xml:"datastore"`
	Name            string   `xml:"name"`
	LockedBySession int32    `xml:"locks>locked-by-session,omitempty"`
	LockedTime      string   `xml:"locks>locked-time,omitempty"`
}

// Schema is one row of the view's schemas subtree.
type Schema struct {
	XMLName   xml.Name `xml:"schema"`
	Identifier string  `xml:"identifier"`
	Revision  string   `xml:"version,omitempty"`
	Format    string   `xml:"format"`
	Namespace string   `xml:"namespace"`
	Location  []string `xml:"location"`
}

// View is the top-level document spec.md §4.5 describes. Sessions and
// Statistics are left as structural placeholders, as the spec
// explicitly allows.
type View struct {
	XMLName      xml.Name     `xml:"urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring netconf-state"`
	Capabilities []string     `xml:"capabilities>capability"`
	Datastores   []Datastore  `xml:"datastores>datastore"`
	Schemas      []Schema     `xml:"schemas>schema"`
	Sessions     struct{}     `xml:"sessions"`
	Statistics   struct{}     `xml:"statistics"`
}

// Source tells the view where to read live datastore/lock state and
// loaded-module state from.
type Source struct {
	Store         *datastore.Store
	Spec          *yangspec.Spec
	MonitorDir    string
	StartupEnabled bool
	Capabilities  []string
}

// well-known datastore names in the view, per spec.md §4.5: running
// and candidate always, startup only when the startup feature is
// enabled.
func (s Source) datastoreNames() []datastore.Name {
	names := []datastore.Name{datastore.Running, datastore.Candidate}
	if s.StartupEnabled {
		names = append(names, datastore.Startup)
	}
	return names
}

// Build projects s's current state into a View, also updating the
// Prometheus gauges so /metrics and the XML view stay consistent.
func Build(s Source) *View {
	v := &View{Capabilities: append([]string(nil), s.Capabilities...)}

	for _, name := range s.datastoreNames() {
		d := Datastore{Name: string(name)}
		locked := 0.0
		holder := 0.0
		if sid, ok := s.Store.IsLocked(name); ok {
			d.LockedBySession = sid
			locked, holder = 1, float64(sid)
			if ts, ok := s.Store.LockTimestamp(name); ok {
				d.LockedTime = ts.UTC().Format(time.RFC3339)
			}
		}
		DatastoreLocked.WithLabelValues(string(name)).Set(locked)
		DatastoreLockHolder.WithLabelValues(string(name)).Set(holder)
		v.Datastores = append(v.Datastores, d)
	}

	modules := s.Spec.Modules()
	SchemasLoaded.Set(float64(len(modules)))
	for _, m := range modules {
		v.Schemas = append(v.Schemas, Schema{
			Identifier: m.Name,
			Revision:   m.Revision,
			Format:     "yang",
			Namespace:  m.Namespace,
			Location:   yangspec.ModuleLocations(m, s.MonitorDir),
		})
	}

	return v
}

// Encode renders v as a pretty-printed XML document.
func (v *View) Encode() ([]byte, error) {
	return xml.MarshalIndent(v, "", "  ")
}
