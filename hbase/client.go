package hbase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tsuna/gohbase"
	"github.com/tsuna/gohbase/filter"
	"github.com/tsuna/gohbase/hrpc"
)

// gohbaseClient implements client on top of gohbase.
type gohbaseClient struct {
	c     gohbase.Client
	admin gohbase.AdminClient
}

func newGohbaseClient(quorum, zkRoot string, zkTimeout time.Duration) client {
	opts := []gohbase.Option{gohbase.ZookeeperTimeout(zkTimeout)}
	if zkRoot != "" {
		opts = append(opts, gohbase.ZookeeperRoot(zkRoot))
	}
	return &gohbaseClient{
		c:     gohbase.NewClient(quorum, opts...),
		admin: gohbase.NewAdminClient(quorum, opts...),
	}
}

func (g *gohbaseClient) Put(ctx context.Context, table, key string, values map[string]map[string][]byte) error {
	put, err := hrpc.NewPutStr(ctx, table, key, values)
	if err != nil {
		return errors.Wrap(err, "building put")
	}
	_, err = g.c.Put(put)
	return err
}

func (g *gohbaseClient) Qualifiers(ctx context.Context, table, family string, fn func([]string)) error {
	scan, err := hrpc.NewScanStr(ctx, table,
		hrpc.Families(map[string][]string{family: nil}),
		hrpc.Filters(filter.NewKeyOnlyFilter(false)))
	if err != nil {
		return errors.Wrap(err, "building scan")
	}
	scanner := g.c.Scan(scan)
	defer scanner.Close()
	for {
		res, err := scanner.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "scanning %s", table)
		}
		quals := make([]string, 0, len(res.Cells))
		for _, cell := range res.Cells {
			quals = append(quals, string(cell.Qualifier))
		}
		fn(quals)
	}
}

func (g *gohbaseClient) EnsureTable(ctx context.Context, table string, families []string, create bool) error {
	get, err := hrpc.NewGetStr(ctx, table, "0")
	if err != nil {
		return errors.Wrap(err, "building existence check")
	}
	_, err = g.c.Get(get)
	if err == nil {
		return nil
	}
	if err != gohbase.TableNotFound || !create {
		return errors.Wrapf(err, "probing table %s", table)
	}
	fams := make(map[string]map[string]string, len(families))
	for _, f := range families {
		fams[f] = map[string]string{"VERSIONS": "1"}
	}
	err = g.admin.CreateTable(hrpc.NewCreateTable(ctx, []byte(table), fams))
	if err != nil && !strings.Contains(err.Error(), "TableExistsException") {
		return errors.Wrapf(err, "creating table %s", table)
	}
	return nil
}

func (g *gohbaseClient) Close() {
	g.c.Close()
}
