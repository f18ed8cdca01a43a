package catalog

import (
	"github.com/gogo/protobuf/proto"
)

// State is the catalog header record.
type State struct {
	MajorVers int32  `protobuf:"varint,1,opt,name=major_vers,json=majorVers,proto3"`
	MinorVers int32  `protobuf:"varint,2,opt,name=minor_vers,json=minorVers,proto3"`
	NextName  uint64 `protobuf:"varint,3,opt,name=next_name,json=nextName,proto3"` // counter of the next automatic name
	Complexes uint64 `protobuf:"varint,4,opt,name=complexes,proto3"`               // persisted complexes
	LastRun   string `protobuf:"bytes,5,opt,name=last_run,json=lastRun,proto3"`
}

func (m *State) Reset()         { *m = State{} }
func (m *State) String() string { return proto.CompactTextString(m) }
func (*State) ProtoMessage()    {}

// record is the persisted value of a cataloged complex.
type record struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3"`
}

func (m *record) Reset()         { *m = record{} }
func (m *record) String() string { return proto.CompactTextString(m) }
func (*record) ProtoMessage()    {}

var (
	_ proto.Message = (*State)(nil)
	_ proto.Message = (*record)(nil)
)
