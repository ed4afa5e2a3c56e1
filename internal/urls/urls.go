package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the official Shelly API documentation site

// Gen1API is the reference for the Gen1 REST/query-string API,
// including the /settings and /settings/login endpoints.
const Gen1API = "https://shelly-api-docs.shelly.cloud/gen1/"

// Gen2API is the reference for the Gen2/3 JSON-RPC API,
// including the Sys.GetConfig and Sys.SetAuth methods.
const Gen2API = "https://shelly-api-docs.shelly.cloud/gen2/"

// Gen2Authentication documents how authentication works on Gen2/3
// devices, covering digest credentials and the Sys.SetAuth flow.
const Gen2Authentication = "https://shelly-api-docs.shelly.cloud/gen2/General/Authentication"

// Gen1CoIoT documents the CoIoT protocol Gen1 devices use to reach
// their controller (multicast by default, unicast when a peer is set).
const Gen1CoIoT = "https://shelly-api-docs.shelly.cloud/gen1/#coiot"

// Gen2OutboundWebsocket documents the outbound WebSocket configuration
// for Gen2/3 devices, reported by the connectivity sensor.
const Gen2OutboundWebsocket = "https://shelly-api-docs.shelly.cloud/gen2/ComponentsAndServices/Ws"
