package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/notes-api/internal/durable"
)

// Bundle file names inside the dist directory.
const (
	DurableBundle = "durable.mjs"
	WorkerBundle  = "worker.mjs"
)

// Deployer runs the three deploy steps in order:
//
//  1. upload the durable bundle as DurableScript
//  2. get or create one namespace per reference, recording its id
//  3. upload the worker bundle as CallingScript, bound to every namespace
//
// The first failing step aborts the run. Earlier steps are not undone;
// ids recorded before the failure stay in the references.
type Deployer struct {
	Client        *Client
	DurableScript string
	CallingScript string
	DistDir       string
	Log           *slog.Logger
}

// Deploy performs the deployment and fills in each reference's ID.
func (d *Deployer) Deploy(ctx context.Context, refs durable.References) error {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	log.Info("step 1: uploading durable script", slog.String("script", d.DurableScript))
	if err := d.upload(ctx, d.DurableScript, DurableBundle, nil); err != nil {
		return fmt.Errorf("step 1: %w", err)
	}

	log.Info("step 2: registering namespaces", slog.Int("classes", len(refs)))
	for _, module := range refs.Modules() {
		if err := d.ensureNamespace(ctx, log, module, refs[module]); err != nil {
			return fmt.Errorf("step 2: %w", err)
		}
	}

	log.Info("step 3: uploading calling worker", slog.String("script", d.CallingScript))
	bindings := make([]Binding, 0, len(refs))
	for _, module := range refs.Modules() {
		ref := refs[module]
		bindings = append(bindings, Binding{
			Type:        BindingDurableObjectNamespace,
			Name:        ref.Namespace,
			NamespaceID: ref.ID,
		})
	}
	if err := d.upload(ctx, d.CallingScript, WorkerBundle, bindings); err != nil {
		return fmt.Errorf("step 3: %w", err)
	}

	log.Info("deploy complete")
	return nil
}

func (d *Deployer) upload(ctx context.Context, script, bundle string, bindings []Binding) error {
	source, err := os.ReadFile(filepath.Join(d.DistDir, bundle))
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}
	return d.Client.UploadScript(ctx, script, ScriptMetadata{
		MainModule: bundle,
		Bindings:   bindings,
	}, source)
}

// ensureNamespace reuses the namespace whose class matches the
// reference's namespace name, or creates it.
func (d *Deployer) ensureNamespace(ctx context.Context, log *slog.Logger, module string, ref *durable.Reference) error {
	existing, err := d.Client.ListNamespaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch registered namespaces: %w", err)
	}

	for _, ns := range existing {
		if ns.Class == ref.Namespace {
			ref.ID = ns.ID
			log.Info("namespace already registered, skipping",
				slog.String("module", module),
				slog.String("id", ns.ID))
			return nil
		}
	}

	ns, err := d.Client.CreateNamespace(ctx, NamespaceRequest{
		Name:   ref.Name,
		Script: d.DurableScript,
		Class:  ref.Namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", module, err)
	}
	ref.ID = ns.ID
	log.Info("namespace registered",
		slog.String("module", module),
		slog.String("id", ns.ID))
	return nil
}
