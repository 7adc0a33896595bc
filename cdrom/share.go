package cdrom

/*------------------------------------------------------------------
 *
 * Purpose:	Advertise and discover shared discs over mDNS/DNS-SD
 *		(§4.12), the same idea as classic Mac OS "CD Sharing" /
 *		modern macOS Remote Disc. Discovery only: no sector data is
 *		tunneled over the network.
 *
 * Description:	Grounded directly on dns_sd.go's dnssd.Config/NewService/
 *		NewResponder/Respond pattern, with the KISS-over-TCP service
 *		type swapped for a CD-ROM share type.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"
)

// ShareServiceType is the DNS-SD service type a RemoteShareAdvertiser
// announces under and a RemoteShareClient browses for.
const ShareServiceType = "_maccdrom._tcp"

// RemoteShareAdvertiser announces one local disc backend as a Remote-Disc-
// style share.
type RemoteShareAdvertiser struct {
	name string
	port int
	log  Logger

	responder dnssd.Responder
}

// NewRemoteShareAdvertiser prepares an advertiser for a share named name,
// reachable on port (a small discovery-protocol listener outside this
// package's scope; only the mDNS record is this type's concern).
func NewRemoteShareAdvertiser(name string, port int, log Logger) *RemoteShareAdvertiser {
	if log == nil {
		log = NullLogger{}
	}
	return &RemoteShareAdvertiser{name: name, port: port, log: log}
}

// Start registers the mDNS/DNS-SD record and begins responding to queries
// in the background, returning once the service is registered.
func (a *RemoteShareAdvertiser) Start(ctx context.Context) error {
	cfg := dnssd.Config{
		Name: a.name,
		Type: ShareServiceType,
		Port: a.port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("share: create service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("share: create responder: %w", err)
	}

	if _, err := rp.Add(sv); err != nil {
		return fmt.Errorf("share: register service: %w", err)
	}
	a.responder = rp

	a.log.Infof("share: advertising %q on port %d as %s", a.name, a.port, ShareServiceType)

	go func() {
		if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
			a.log.Errorf("share: responder error: %v", err)
		}
	}()
	return nil
}

// RemoteShare is one discovered share, for display in a config tool.
type RemoteShare struct {
	Name string
	Host string
	Port int
}

// RemoteShareClient browses for shares advertised by RemoteShareAdvertiser
// instances on the LAN.
type RemoteShareClient struct {
	log Logger
}

func NewRemoteShareClient(log Logger) *RemoteShareClient {
	if log == nil {
		log = NullLogger{}
	}
	return &RemoteShareClient{log: log}
}

// Discover browses until ctx is canceled, delivering each share found (or
// removed, not distinguished here since only listing is in scope) on the
// returned channel.
func (c *RemoteShareClient) Discover(ctx context.Context) (<-chan RemoteShare, error) {
	out := make(chan RemoteShare, 8)

	addFn := func(e dnssd.BrowseEntry) {
		var host string
		if len(e.IPs) > 0 {
			host = e.IPs[0].String()
		}
		select {
		case out <- RemoteShare{Name: e.Name, Host: host, Port: e.Port}:
		case <-ctx.Done():
		}
	}
	rmvFn := func(dnssd.BrowseEntry) {}

	go func() {
		defer close(out)
		if err := dnssd.LookupType(ctx, ShareServiceType, addFn, rmvFn); err != nil && ctx.Err() == nil {
			c.log.Errorf("share: browse error: %v", err)
		}
	}()

	return out, nil
}
