// Package registry is the host side of code generation: it owns the
// templates that produce generated files, the logical aliases other code
// uses to refer to them, the components they export, and the lifecycle
// hooks that drive regeneration.
//
// A Registry is passed explicitly to every module. Nothing here is global,
// so tests can build one, run a module's setup against it and inspect the
// resulting templates, aliases and components directly.
//
// Rendering is lazy and cached. Contents renders a template on first read;
// UpdateTemplates invalidates matching templates and renders them again.
// Renders of one destination are single-flight: concurrent triggers share
// one in-flight render, and a trigger that arrives while a render is
// running causes exactly one follow-up render rather than a second,
// interleaved write.
package registry
