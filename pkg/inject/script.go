package inject

// portPlaceholder is the token in the script template replaced by the
// notification server's port.
const portPlaceholder = "__LIVESERVE_PORT__"

// reloadScript is the client snippet embedded into served HTML. The
// browser opens the notification channel on load and reloads the page on
// any message. After the channel closes nothing further happens; a
// restarted server reaches the page again on the next manual refresh.
const reloadScript = `
<script>
(function() {
    const ws = new WebSocket('ws://localhost:` + portPlaceholder + `');
    ws.onopen = () => console.log('[liveserve] connected');
    ws.onmessage = () => {
        console.log('[liveserve] reloading...');
        window.location.reload();
    };
    ws.onclose = () => console.log('[liveserve] disconnected');
})();
</script>
`
