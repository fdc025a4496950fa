// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// State commands
	CmdSetViewport     CommandType = iota // Set viewport and depth range
	CmdSetPipeline                        // Bind render pipeline
	CmdSetBindGroup                       // Bind descriptor set
	CmdSetVertexBuffer                    // Bind vertex buffer to a slot
	CmdSetIndexBuffer                     // Bind index buffer

	// Drawing commands
	CmdDraw        // Non-indexed draw
	CmdDrawIndexed // Indexed draw
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdSetViewport:     "SetViewport",
	CmdSetPipeline:     "SetPipeline",
	CmdSetBindGroup:    "SetBindGroup",
	CmdSetVertexBuffer: "SetVertexBuffer",
	CmdSetIndexBuffer:  "SetIndexBuffer",
	CmdDraw:            "Draw",
	CmdDrawIndexed:     "DrawIndexed",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// SetViewportCommand sets the viewport rectangle and depth range.
type SetViewportCommand struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Type implements Command.
func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

// SetPipelineCommand binds a render pipeline.
type SetPipelineCommand struct {
	Pipeline gpucore.RenderPipelineID
}

// Type implements Command.
func (SetPipelineCommand) Type() CommandType { return CmdSetPipeline }

// SetBindGroupCommand binds a descriptor set to a group index.
type SetBindGroupCommand struct {
	Index uint32
	Group gpucore.BindGroupID
}

// Type implements Command.
func (SetBindGroupCommand) Type() CommandType { return CmdSetBindGroup }

// SetVertexBufferCommand binds a vertex buffer to a slot.
type SetVertexBufferCommand struct {
	Slot   uint32
	Buffer gpucore.BufferID
	Offset uint64
}

// Type implements Command.
func (SetVertexBufferCommand) Type() CommandType { return CmdSetVertexBuffer }

// SetIndexBufferCommand binds the index buffer.
type SetIndexBufferCommand struct {
	Buffer gpucore.BufferID
	Format gputypes.IndexFormat
	Offset uint64
}

// Type implements Command.
func (SetIndexBufferCommand) Type() CommandType { return CmdSetIndexBuffer }

// DrawCommand draws non-indexed vertices.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// DrawIndexedCommand draws indexed vertices.
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Type implements Command.
func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }

// replay issues a single command onto enc.
func replay(enc gpucore.RenderPassEncoder, cmd Command) error {
	switch c := cmd.(type) {
	case SetViewportCommand:
		enc.SetViewport(c.X, c.Y, c.Width, c.Height, c.MinDepth, c.MaxDepth)
	case SetPipelineCommand:
		enc.SetPipeline(c.Pipeline)
	case SetBindGroupCommand:
		enc.SetBindGroup(c.Index, c.Group)
	case SetVertexBufferCommand:
		enc.SetVertexBuffer(c.Slot, c.Buffer, c.Offset)
	case SetIndexBufferCommand:
		enc.SetIndexBuffer(c.Buffer, c.Format, c.Offset)
	case DrawCommand:
		enc.Draw(c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)
	case DrawIndexedCommand:
		enc.DrawIndexed(c.IndexCount, c.InstanceCount, c.FirstIndex, c.BaseVertex, c.FirstInstance)
	default:
		return fmt.Errorf("recording: unknown command %T", cmd)
	}
	return nil
}
