package bar

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/foomo/barctl/pkg/dsa"
	"github.com/foomo/barctl/pkg/reconcile"
	"github.com/foomo/barctl/requests"
	"github.com/foomo/barctl/responses"
)

var diskFileSystems = collection[dsa.FileSystem]{
	name:       ResourceDiskFileSystem,
	endpoint:   dsa.EndpointDiskFileSystem,
	listStatus: dsa.StatusListDiskFileSystemsSuccessful,
	decode: func(resp *dsa.Response) ([]dsa.FileSystem, error) {
		var list dsa.FileSystemList
		if err := resp.Decode(&list); err != nil {
			return nil, err
		}
		return list.FileSystems, nil
	},
	encode: func(items []dsa.FileSystem) any {
		return dsa.FileSystemList{FileSystems: items}
	},
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ManageDiskFileSystem dispatches a disk file system request.
func (s *Service) ManageDiskFileSystem(ctx context.Context, req *requests.DiskFileSystem) *responses.Result {
	var res *responses.Result
	switch req.Operation {
	case OperationList:
		res = s.ListDiskFileSystems(ctx)
	case OperationConfig:
		switch {
		case strings.TrimSpace(req.FileSystemPath) == "":
			res = invalidInput("file_system_path is required for config operation")
		case req.MaxFiles == nil:
			res = invalidInput("max_files is required for config operation")
		default:
			res = s.ConfigDiskFileSystem(ctx, req.FileSystemPath, *req.MaxFiles)
		}
	case OperationRemove:
		if strings.TrimSpace(req.FileSystemPath) == "" {
			res = invalidInput("file_system_path is required for remove operation")
		} else {
			res = s.RemoveDiskFileSystem(ctx, req.FileSystemPath)
		}
	case OperationDeleteAll:
		res = s.DeleteAllDiskFileSystems(ctx)
	default:
		res = unknownOperation(req.Operation, DiskFileSystemOperations)
	}
	return s.finish(ResourceDiskFileSystem, ToolDiskFileSystem, req.Operation, res, diskArguments(req))
}

func (s *Service) ListDiskFileSystems(ctx context.Context) *responses.Result {
	resp, err := s.requester.Do(ctx, &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointDiskFileSystem})
	if err != nil {
		return transportError("listing disk file systems", err)
	}

	r := newReport("DSA Disk File Systems")
	if resp.ComponentMissing() {
		r.line("Total File Systems: 0")
		r.blank()
		r.line("No disk file systems configured")
		return responses.NewResult(responses.OutcomeSuccess, r.String())
	}
	if !resp.Succeeded(dsa.StatusListDiskFileSystemsSuccessful) {
		r.line("Failed to list disk file systems")
		r.status(resp)
		r.validations(resp)
		return responses.NewResult(rejected(resp), r.String())
	}

	items, err := diskFileSystems.decode(resp)
	if err != nil {
		return transportError("reading disk file systems", err)
	}
	r.line("Total File Systems: %d", len(items))
	r.blank()
	if len(items) == 0 {
		r.line("No disk file systems configured")
	}
	for i, fs := range items {
		r.line("%d. %s", i+1, fs.FileSystemPath)
		r.line("   Max Files: %d", fs.MaxFiles)
	}
	r.blank()
	r.status(resp)
	return responses.NewResult(responses.OutcomeSuccess, r.String())
}

// ConfigDiskFileSystem adds path or updates its max files, keeping every
// other configured file system.
func (s *Service) ConfigDiskFileSystem(ctx context.Context, path string, maxFiles int) *responses.Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return invalidInput("file_system_path is required for config operation")
	}
	if maxFiles <= 0 {
		return invalidInput("max_files must be greater than 0")
	}

	m := mutate(ctx, s, diskFileSystems, func(current []dsa.FileSystem) ([]dsa.FileSystem, reconcile.Change) {
		want := dsa.FileSystem{FileSystemPath: path, MaxFiles: maxFiles}
		// an update keeps the attributes DSA attached to the file system
		for _, fs := range current {
			if fs.FileSystemPath == path {
				want.Extra = fs.Extra
				break
			}
		}
		return reconcile.Apply(current, reconcile.UpsertIntent(want), dsa.FileSystemKey)
	})
	if m.failed() {
		return fetchFailure(m, "configure file system '"+path+"'")
	}
	if m.writeErr != nil {
		return transportError("configuring disk file system", m.writeErr)
	}

	r := newReport("DSA Disk File System Configuration")
	r.line("File System Path: %s", path)
	r.line("Max Files: %d", maxFiles)
	r.line("Action: %s", changeLabel(m.change))
	r.line("Total File Systems: %d", len(m.after))
	r.blank()
	if !m.response.Succeeded(dsa.StatusConfigDiskFileSystemSuccessful) {
		r.line("Configuration failed")
		r.status(m.response)
		r.validations(m.response)
		return responses.NewResult(rejected(m.response), r.String())
	}
	r.line("Configuration successful")
	r.status(m.response)
	r.validations(m.response)
	return responses.NewResult(responses.OutcomeSuccess, r.String())
}

// RemoveDiskFileSystem drops path from the configuration. It never writes
// when path is not configured.
func (s *Service) RemoveDiskFileSystem(ctx context.Context, path string) *responses.Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return invalidInput("file_system_path is required for remove operation")
	}

	m := mutate(ctx, s, diskFileSystems, func(current []dsa.FileSystem) ([]dsa.FileSystem, reconcile.Change) {
		return reconcile.Apply(current, reconcile.RemoveIntent[dsa.FileSystem](path), dsa.FileSystemKey)
	})
	if m.failed() {
		return fetchFailure(m, "remove file system '"+path+"'")
	}

	if m.change == reconcile.ChangeNotFound {
		r := newReport("DSA Disk File System Removal")
		r.line("File system '%s' is not configured", path)
		r.blank()
		r.line("Configured file systems:")
		r.bullets(reconcile.Keys(m.before, dsa.FileSystemKey), "(none)")
		return responses.NewResult(responses.OutcomeNotFound, r.String())
	}
	if m.writeErr != nil {
		return transportError("removing disk file system", m.writeErr)
	}

	r := newReport("DSA Disk File System Removal")
	r.line("File System Path: %s", path)
	r.blank()
	if !m.response.Succeeded(dsa.StatusConfigDiskFileSystemSuccessful) {
		outcome := rejected(m.response)
		r.line("Removal failed")
		r.status(m.response)
		r.validations(m.response)
		if outcome == responses.OutcomeConflict {
			inUseNotes(r)
		}
		return responses.NewResult(outcome, r.String())
	}
	r.line("File system removed")
	r.line("Remaining File Systems: %d", len(m.after))
	r.bullets(reconcile.Keys(m.after, dsa.FileSystemKey), "(none)")
	r.blank()
	r.status(m.response)
	return responses.NewResult(responses.OutcomeSuccess, r.String())
}

// DeleteAllDiskFileSystems replaces the configuration with an empty one.
func (s *Service) DeleteAllDiskFileSystems(ctx context.Context) *responses.Result {
	m := mutate(ctx, s, diskFileSystems, func(current []dsa.FileSystem) ([]dsa.FileSystem, reconcile.Change) {
		return []dsa.FileSystem{}, reconcile.ChangeRemoved
	})
	if m.failed() {
		return fetchFailure(m, "delete all file systems")
	}
	if m.writeErr != nil {
		return transportError("deleting disk file systems", m.writeErr)
	}

	r := newReport("DSA Disk File System Deletion")
	r.line("File Systems Before: %d", len(m.before))
	r.blank()
	if !m.response.Succeeded(dsa.StatusConfigDiskFileSystemSuccessful) {
		outcome := rejected(m.response)
		r.line("Deletion failed")
		r.status(m.response)
		r.validations(m.response)
		if outcome == responses.OutcomeConflict {
			inUseNotes(r)
		}
		return responses.NewResult(outcome, r.String())
	}
	r.line("All disk file systems deleted")
	r.status(m.response)
	r.validations(m.response)
	return responses.NewResult(responses.OutcomeSuccess, r.String())
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func diskArguments(req *requests.DiskFileSystem) map[string]any {
	args := map[string]any{"operation": req.Operation}
	if req.FileSystemPath != "" {
		args["file_system_path"] = req.FileSystemPath
	}
	if req.MaxFiles != nil {
		args["max_files"] = *req.MaxFiles
	}
	return args
}

// fetchFailure reports a mutation that stopped before writing.
func fetchFailure[T any](m *mutation[T], action string) *responses.Result {
	if m.fetchErr != nil {
		return transportError("retrieving existing configuration", m.fetchErr)
	}
	r := newReport(fmt.Sprintf("Could not retrieve existing configuration to %s", action))
	r.line("Nothing was changed")
	r.status(m.fetchRejected)
	r.validations(m.fetchRejected)
	return responses.NewResult(rejected(m.fetchRejected), r.String())
}

func inUseNotes(r *report) {
	r.blank()
	r.line("Helpful Notes:")
	r.line("   - Remove all backup jobs using these file systems first")
	r.line("   - Delete any file target groups that reference these file systems")
	r.line("   - Use the list operation to see current configurations")
}

func changeLabel(c reconcile.Change) string {
	switch c {
	case reconcile.ChangeInserted:
		return "Added"
	case reconcile.ChangeUpdated:
		return "Updated"
	case reconcile.ChangeRemoved:
		return "Removed"
	default:
		return "Unchanged"
	}
}
