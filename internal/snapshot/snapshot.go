package snapshot

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pocketomega/vibe-runtime/internal/ast"
	"github.com/pocketomega/vibe-runtime/internal/frame"
	"github.com/pocketomega/vibe-runtime/internal/provider"
	"github.com/pocketomega/vibe-runtime/internal/runtime"
	"github.com/pocketomega/vibe-runtime/internal/value"
)

// SchemaVersion is bumped whenever Document's shape changes in a way that
// breaks decoding of previously-written documents (spec §4.I "schema
// version"). Document.SchemaVersion is checked on Deserialize so a stale
// writer's document fails loudly instead of decoding into a half-populated
// state.
const SchemaVersion = 1

// errorDoc is RuntimeError's wire shape; runtime.RuntimeError marshals
// natively, but Document keeps an explicit type so a nil *runtime.RuntimeError
// round-trips as an absent YAML key rather than `null`.
type errorDoc struct {
	Kind     string `yaml:"kind"`
	Message  string `yaml:"message"`
	Location string `yaml:"location,omitempty"`
}

// pendingAIDoc is runtime.PendingAI's wire shape.
type pendingAIDoc struct {
	AIKind         string                     `yaml:"aiKind"`
	Prompt         string                     `yaml:"prompt"`
	Model          value.ModelConfig          `yaml:"model"`
	HasModel       bool                       `yaml:"hasModel"`
	DestAnnotation value.TypeAnnotation       `yaml:"destAnnotation"`
	Tools          []provider.ToolDefinition  `yaml:"tools,omitempty"`
}

// Document is the self-contained, versioned persisted-state format
// described in spec §4.I: "schema version, call stack, instruction stack,
// status, pending bundles, AI interaction log. No field is intentionally
// lossy." It is built and consumed only by Serialize/Deserialize below —
// callers never construct one directly.
type Document struct {
	SchemaVersion int    `yaml:"schemaVersion"`
	Status        string `yaml:"status"`
	Error         *errorDoc `yaml:"error,omitempty"`

	CallStack    []*frame.Frame `yaml:"callStack"`
	Instructions []instrNode    `yaml:"instructions"`

	LastResult      value.Value `yaml:"lastResult"`
	NextValueSource string      `yaml:"nextValueSource,omitempty"`

	TempStack []value.Value `yaml:"tempStack,omitempty"`

	ScopeLocalsStack []runtime.ScopeSnapshot  `yaml:"scopeLocalsStack,omitempty"`
	ReturnTypes      []value.TypeAnnotation   `yaml:"returnTypes,omitempty"`
	ScopeDepthAtCall []int                    `yaml:"scopeDepthAtCall,omitempty"`

	PendingAI                 *pendingAIDoc          `yaml:"pendingAI,omitempty"`
	PendingTs                 *runtime.PendingTs     `yaml:"pendingTs,omitempty"`
	PendingTool               *runtime.PendingTool   `yaml:"pendingTool,omitempty"`
	PendingCompress           *frame.PendingCompress `yaml:"pendingCompress,omitempty"`
	PendingCompressFrameIndex int                    `yaml:"pendingCompressFrameIndex"`

	ImportedModules map[string]value.Value `yaml:"importedModules,omitempty"`
	Functions       map[string]node         `yaml:"functions,omitempty"`

	AIInteractions []runtime.AIInteraction `yaml:"aiInteractions,omitempty"`

	RootDir string `yaml:"rootDir,omitempty"`
}

// Serialize renders a RuntimeState into its versioned document bytes
// (YAML, matching the teacher's skill.yaml persistence discipline — see
// DESIGN.md). s is read-only: Serialize takes no ownership and performs no
// mutation, so it may be called from any pause point, mid-run or
// terminal, per spec §9 "every pause point a serialization boundary."
func Serialize(s *runtime.RuntimeState) ([]byte, error) {
	doc := Document{
		SchemaVersion:             SchemaVersion,
		Status:                    string(s.Status),
		CallStack:                 s.CallStack,
		Instructions:              encodeStack(s.Instructions),
		LastResult:                s.LastResult,
		NextValueSource:           string(s.NextValueSource),
		TempStack:                 s.TempStack,
		ScopeLocalsStack:          s.ScopeStackSnapshot(),
		ReturnTypes:               s.ReturnTypes,
		ScopeDepthAtCall:          s.ScopeDepthAtCall,
		PendingTs:                 s.PendingTs,
		PendingTool:               s.PendingTool,
		PendingCompress:           s.PendingCompress,
		PendingCompressFrameIndex: s.PendingCompressFrameIndex(),
		ImportedModules:           s.ImportedModules,
		AIInteractions:            s.AIInteractions,
		RootDir:                   s.RootDir,
	}
	if s.Err != nil {
		doc.Error = &errorDoc{Kind: string(s.Err.Kind), Message: s.Err.Message, Location: s.Err.Location}
	}
	if s.PendingAI != nil {
		doc.PendingAI = &pendingAIDoc{
			AIKind: string(s.PendingAI.AIKind), Prompt: s.PendingAI.Prompt,
			Model: s.PendingAI.Model, HasModel: s.PendingAI.HasModel,
			DestAnnotation: s.PendingAI.DestAnnotation, Tools: s.PendingAI.Tools,
		}
	}
	if s.Functions != nil {
		doc.Functions = make(map[string]node, len(s.Functions))
		for name, fn := range s.Functions {
			doc.Functions[name] = encodeFunctionDecl(fn)
		}
	}

	return yaml.Marshal(&doc)
}

// Deserialize reconstructs a RuntimeState from bytes produced by Serialize.
// It performs no history replay (spec §4.I): the returned state resumes
// exactly where it was persisted, instruction stack and all.
func Deserialize(data []byte) (*runtime.RuntimeState, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: decoding document: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("snapshot: unsupported schema version %d (want %d)", doc.SchemaVersion, SchemaVersion)
	}

	instructions, err := decodeStack(doc.Instructions)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decoding instruction stack: %w", err)
	}

	s := &runtime.RuntimeState{
		Status:           runtime.Status(doc.Status),
		CallStack:        doc.CallStack,
		Instructions:     instructions,
		LastResult:       doc.LastResult,
		NextValueSource:  frame.Source(doc.NextValueSource),
		TempStack:        doc.TempStack,
		ReturnTypes:      doc.ReturnTypes,
		ScopeDepthAtCall: doc.ScopeDepthAtCall,
		PendingTs:        doc.PendingTs,
		PendingTool:      doc.PendingTool,
		PendingCompress:  doc.PendingCompress,
		ImportedModules:  doc.ImportedModules,
		AIInteractions:   doc.AIInteractions,
		RootDir:          doc.RootDir,
	}
	s.RestoreScopeStack(doc.ScopeLocalsStack)
	s.SetPendingCompressFrame(doc.PendingCompressFrameIndex)

	if doc.Error != nil {
		s.Err = &runtime.RuntimeError{Kind: runtime.ErrorKind(doc.Error.Kind), Message: doc.Error.Message, Location: doc.Error.Location}
	}
	if doc.PendingAI != nil {
		s.PendingAI = &runtime.PendingAI{
			AIKind: frame.AIType(doc.PendingAI.AIKind), Prompt: doc.PendingAI.Prompt,
			Model: doc.PendingAI.Model, HasModel: doc.PendingAI.HasModel,
			DestAnnotation: doc.PendingAI.DestAnnotation, Tools: doc.PendingAI.Tools,
		}
	}
	if doc.Functions != nil {
		s.Functions = make(map[string]*ast.FunctionDeclaration, len(doc.Functions))
		for name, n := range doc.Functions {
			fn, err := decodeFunctionDecl(n)
			if err != nil {
				return nil, fmt.Errorf("snapshot: decoding function %q: %w", name, err)
			}
			s.Functions[name] = fn
		}
	}
	return s, nil
}

// Clone returns a state with no shared mutable references to s, defined —
// per spec §4.I — as serialize followed by deserialize. Implementations
// may optimize this in the future; this one does not need to, since state
// documents are small relative to one LLM round trip's latency.
func Clone(s *runtime.RuntimeState) (*runtime.RuntimeState, error) {
	data, err := Serialize(s)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}
