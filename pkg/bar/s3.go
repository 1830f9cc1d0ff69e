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
	"go.uber.org/multierr"
)

// S3Config is the desired AWS backup target of a config request.
type S3Config struct {
	AccessID        string
	AccessKey       string
	AcctName        string
	BucketName      string
	BucketsByRegion []dsa.Region
	Verify          bool
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ManageAWSS3 dispatches an AWS S3 target request.
func (s *Service) ManageAWSS3(ctx context.Context, req *requests.AWSS3) *responses.Result {
	var res *responses.Result
	switch req.Operation {
	case OperationList:
		res = s.ListAWSS3(ctx)
	case OperationConfig:
		res = s.ConfigAWSS3(ctx, S3Config{
			AccessID:        req.AccessID,
			AccessKey:       req.AccessKey,
			AcctName:        req.AcctName,
			BucketName:      req.BucketName,
			BucketsByRegion: req.BucketsByRegion,
			Verify:          req.Verify,
		})
	case OperationDeleteAll, OperationRemove:
		res = responses.NewResult(responses.OutcomeNotImplemented,
			fmt.Sprintf("Error: '%s' operation is not implemented yet for AWS S3 Configuration", req.Operation),
		)
	default:
		res = unknownOperation(req.Operation, AWSS3Operations)
	}
	return s.finish(ResourceAWSS3, ToolAWSS3, req.Operation, res, s3Arguments(req))
}

func (s *Service) ListAWSS3(ctx context.Context) *responses.Result {
	resp, err := s.requester.Do(ctx, &dsa.Request{Method: http.MethodGet, Endpoint: dsa.EndpointAWSS3})
	if err != nil {
		return transportError("listing AWS S3 backup configurations", err)
	}

	if !resp.Succeeded(dsa.StatusListAWSAppSuccessful) && !resp.ComponentMissing() {
		r := newReport("DSA AWS S3 Backup Configurations")
		r.line("Failed to list AWS S3 backup configurations")
		r.status(resp)
		r.validations(resp)
		return responses.NewResult(rejected(resp), r.String())
	}

	regions, err := s3Regions.decode(resp)
	if err != nil && !resp.ComponentMissing() {
		return transportError("reading AWS S3 backup configurations", err)
	}

	body := &report{}
	buckets := 0
	for i, region := range regions {
		body.line("Region #%d: %s", i+1, orNA(region.Region, "N/A"))
		if len(region.Buckets) == 0 {
			body.line("   No buckets configured in this region")
		}
		for j, bucket := range region.Buckets {
			buckets++
			body.line("   Bucket #%d: %s", j+1, orNA(bucket.BucketName, "N/A"))
			if len(bucket.PrefixList) == 0 {
				body.line("      No prefixes configured")
			}
			for k, prefix := range bucket.PrefixList {
				body.line("      Prefix #%d: %s", k+1, orNA(prefix.PrefixName, "N/A"))
				body.line("         Storage Devices: %d", prefix.StorageDevices)
			}
		}
		body.blank()
	}

	r := newReport("DSA AWS S3 Backup Configurations")
	r.line("Total Buckets Configured: %d", buckets)
	r.blank()
	if len(regions) == 0 {
		r.line("No AWS backup solutions configured")
	} else {
		r.b.WriteString(body.b.String())
	}
	r.rule()
	r.status(resp)
	r.line("Found Component: %s", flag(resp.FoundComponent))
	return responses.NewResult(responses.OutcomeSuccess, r.String())
}

// ConfigAWSS3 merges cfg into the AWS configuration on DSA. Regions are
// matched by name and buckets by bucket name within a region, so regions
// and buckets not named in cfg are kept.
func (s *Service) ConfigAWSS3(ctx context.Context, cfg S3Config) *responses.Result {
	if res := validateS3Config(cfg); res != nil {
		return res
	}

	if cfg.Verify && s.verifier != nil {
		if err := s.verifier.Verify(ctx, cfg.AccessID, cfg.AccessKey, cfg.BucketsByRegion); err != nil {
			r := newReport("DSA AWS S3 Backup Configuration")
			r.line("Bucket verification failed, nothing was changed")
			for _, e := range multierr.Errors(err) {
				r.line("   - %s", e.Error())
			}
			return responses.NewResult(responses.OutcomeInvalidInput, r.String())
		}
	}

	var replaced string
	c := s3Regions
	c.decode = func(resp *dsa.Response) ([]dsa.Region, error) {
		regions, acct, err := accountRegions(resp, cfg.AcctName)
		replaced = acct
		return regions, err
	}
	c.encode = func(regions []dsa.Region) any {
		return dsa.AWSApp{ConfigAwsRest: dsa.AWSConfig{
			AccessID:              cfg.AccessID,
			AccessKey:             cfg.AccessKey,
			BucketsByRegion:       regions,
			BucketName:            cfg.BucketName,
			AcctName:              cfg.AcctName,
			Viewpoint:             true,
			ViewpointBucketRegion: true,
		}}
	}
	m := mutate(ctx, s, c, func(current []dsa.Region) ([]dsa.Region, reconcile.Change) {
		return mergeRegions(current, cfg.BucketsByRegion)
	})
	if m.failed() {
		return fetchFailure(m, "configure AWS account '"+cfg.AcctName+"'")
	}
	if m.writeErr != nil {
		return transportError("configuring AWS backup solution", m.writeErr)
	}

	r := newReport("DSA AWS S3 Backup Configuration")
	r.line("Account: %s", cfg.AcctName)
	r.line("Access ID: %s", mask(cfg.AccessID))
	r.line("Bucket Name: %s", cfg.BucketName)
	r.line("Action: %s", changeLabel(m.change))
	if replaced != "" {
		r.line("Replaced Account: %s", replaced)
	}
	r.line("Regions: %s", strings.Join(reconcile.Keys(m.after, dsa.RegionKey), ", "))
	r.blank()
	if !m.response.Succeeded("") {
		r.line("Configuration failed")
		r.status(m.response)
		r.validations(m.response)
		return responses.NewResult(rejected(m.response), r.String())
	}
	r.line("AWS backup solution configuration completed")
	r.status(m.response)
	r.validations(m.response)
	return responses.NewResult(responses.OutcomeSuccess, r.String())
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

var s3Regions = collection[dsa.Region]{
	name:       ResourceAWSS3,
	endpoint:   dsa.EndpointAWSS3,
	listStatus: dsa.StatusListAWSAppSuccessful,
	decode: func(resp *dsa.Response) ([]dsa.Region, error) {
		var list dsa.AWSAppList
		if err := resp.Decode(&list); err != nil {
			return nil, err
		}
		if len(list.AWS) == 0 {
			return nil, nil
		}
		return list.AWS[0].ConfigAwsRest.BucketsByRegion, nil
	},
	// every stored account is kept, without secrets
	snapshot: func(resp *dsa.Response, _ []dsa.Region) any {
		var list dsa.AWSAppList
		if err := resp.Decode(&list); err != nil {
			return nil
		}
		apps := []dsa.AWSApp(list.AWS)
		for i := range apps {
			apps[i].ConfigAwsRest.AccessKey = ""
		}
		return apps
	},
}

// mergeRegions upserts every desired region into current. Buckets of a
// region present in both are upserted one by one.
func mergeRegions(current, desired []dsa.Region) ([]dsa.Region, reconcile.Change) {
	next := current
	change := reconcile.ChangeInserted
	for _, want := range desired {
		existing, ok := findRegion(next, want.Region)
		if !ok {
			next, _ = reconcile.Upsert(next, want, dsa.RegionKey)
			continue
		}
		change = reconcile.ChangeUpdated
		buckets := []dsa.Bucket(existing.Buckets)
		for _, bucket := range want.Buckets {
			if bucket.Extra == nil {
				bucket.Extra = findBucketExtra(buckets, bucket.BucketName)
			}
			buckets, _ = reconcile.Upsert(buckets, bucket, dsa.BucketKey)
		}
		existing.Buckets = buckets
		next, _ = reconcile.Upsert(next, existing, dsa.RegionKey)
	}
	return next, change
}

func findBucketExtra(buckets []dsa.Bucket, name string) dsa.Extra {
	for _, b := range buckets {
		if b.BucketName == name {
			return b.Extra
		}
	}
	return nil
}

// accountRegions returns the regions stored for acctName. A configuration
// stored for another account contributes nothing; its name is returned as
// replaced. A stored configuration without account name is taken as a match.
func accountRegions(resp *dsa.Response, acctName string) (regions []dsa.Region, replaced string, err error) {
	var list dsa.AWSAppList
	if err := resp.Decode(&list); err != nil {
		return nil, "", err
	}
	for _, app := range list.AWS {
		if stored := app.ConfigAwsRest.AcctName; stored == "" || stored == acctName {
			return app.ConfigAwsRest.BucketsByRegion, "", nil
		}
	}
	if len(list.AWS) > 0 {
		replaced = list.AWS[0].ConfigAwsRest.AcctName
	}
	return nil, replaced, nil
}

func findRegion(regions []dsa.Region, name string) (dsa.Region, bool) {
	for _, r := range regions {
		if r.Region == name {
			return r, true
		}
	}
	return dsa.Region{}, false
}

func validateS3Config(cfg S3Config) *responses.Result {
	switch {
	case cfg.AccessID == "":
		return invalidInput("accessId is required for config operation")
	case cfg.AccessKey == "":
		return invalidInput("accessKey is required for config operation")
	case len(cfg.BucketsByRegion) == 0:
		return invalidInput("bucketsByRegion is required for config operation")
	case cfg.AcctName == "":
		return invalidInput("acctName is required for config operation")
	case cfg.BucketName == "":
		return invalidInput("bucketName is required for config operation")
	}
	for i, region := range cfg.BucketsByRegion {
		if strings.TrimSpace(region.Region) == "" {
			return invalidInput("bucketsByRegion[%d].region is required", i)
		}
		for j, bucket := range region.Buckets {
			if strings.TrimSpace(bucket.BucketName) == "" {
				return invalidInput("bucketsByRegion[%d].buckets[%d].bucketName is required", i, j)
			}
		}
	}
	return nil
}

func s3Arguments(req *requests.AWSS3) map[string]any {
	args := map[string]any{"operation": req.Operation}
	if req.AccessID != "" {
		args["accessId"] = mask(req.AccessID)
	}
	if req.AccessKey != "" {
		args["accessKey"] = "********"
	}
	if req.AcctName != "" {
		args["acctName"] = req.AcctName
	}
	if req.BucketName != "" {
		args["bucketName"] = req.BucketName
	}
	if len(req.BucketsByRegion) > 0 {
		args["bucketsByRegion"] = reconcile.Keys([]dsa.Region(req.BucketsByRegion), dsa.RegionKey)
	}
	if req.Verify {
		args["verify"] = true
	}
	return args
}
