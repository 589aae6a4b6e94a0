// Package gomessagebus provides both a low-level protocol client and a
// higher-level client for servers speaking the message bus long polling
// protocol.
//
// The best way to create a high-level client is with `NewClient`. Provided a
// server address for the server you're using, you can create a client like so
//
//	serverAddress := "https://forum.example.com/"
//	client, err := gomessagebus.NewClient(serverAddress)
//
// You can also register custom HTTP transports with your client
//
//	transport := &http.Transport{
//		DialContext: (&net.Dialer{
//			Timeout:   3 * time.Second,
//			KeepAlive: 10 * time.Second,
//		}).DialContext,
//	}
//	client, err := gomessagebus.NewClient(serverAddress, gomessagebus.WithHTTPTransport(transport))
//
// You subscribe to a Channel with a callback. Callbacks run one at a time on
// the poll loop, in the order the server sent the messages
//
//	client.Subscribe("/chat", func(data json.RawMessage) {
//		fmt.Println(string(data))
//	})
//	err := client.Start(ctx)
//
// The client backs off when polls come back empty or fail and polls less
// often while its host is hidden. Tell it about visibility with a
// VisibilityOracle such as ToggleVisibility
//
//	visibility := &gomessagebus.ToggleVisibility{}
//	client, err := gomessagebus.NewClient(serverAddress, gomessagebus.WithVisibility(visibility))
//	visibility.Hide()
//
// You can also register extensions by implementing the MessageExtender
// interface and then passing it to the client
//
//	type Example struct{}
//	func (e *Example) Registered(name string, client *gomessagebus.MessageBusClient) {}
//	func (e *Example) Unregistered() {}
//	func (e *Example) Outgoing(payload url.Values) {
//		payload.Set("/always", "-1")
//	}
//	func (e *Example) Incoming(m *gomessagebus.Message) {}
//
//	client.UseExtension("example", &Example{})
package gomessagebus
