package handlers

import (
	"net/http"
)

// DashboardHandler serves the dashboard HTML page.
func DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(dashboardHTML))
	}
}

var dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>OpenCode Deck</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <script>
        tailwind.config = {
            darkMode: 'class',
            theme: { extend: { colors: { primary: '#6366f1' } } }
        }
    </script>
</head>
<body class="bg-gray-950 text-gray-100 min-h-screen">
<div class="max-w-5xl mx-auto p-6">
    <header class="flex items-center justify-between mb-6">
        <div>
            <h1 class="text-2xl font-bold">OpenCode Deck <span class="text-xs text-gray-500">{{VERSION}}</span></h1>
            <p class="text-sm text-gray-400">Provider status &amp; chat for your local OpenCode server</p>
        </div>
        <div id="summary" class="text-sm text-gray-300"></div>
    </header>

    <div id="banner" class="hidden mb-4 px-4 py-2 rounded bg-red-900/60 border border-red-700 text-sm"></div>

    <section class="mb-8">
        <h2 class="text-lg font-semibold mb-3">Providers</h2>
        <div id="providers" class="grid grid-cols-1 md:grid-cols-2 gap-4"></div>
    </section>

    <section>
        <h2 class="text-lg font-semibold mb-3">Chat</h2>
        <div class="bg-gray-900 rounded-lg border border-gray-800 flex flex-col h-96">
            <div id="chat-log" class="flex-1 overflow-y-auto p-4 space-y-3 text-sm"></div>
            <form id="chat-form" class="flex border-t border-gray-800">
                <input id="chat-input" class="flex-1 bg-transparent px-4 py-3 outline-none" placeholder="Message the assistant..." autocomplete="off">
                <button id="chat-send" class="px-5 text-primary font-semibold disabled:opacity-40" type="submit">Send</button>
            </form>
        </div>
        <p id="chat-state" class="text-xs text-gray-500 mt-2">no-session</p>
    </section>
</div>

<!-- modal host -->
<div id="modal" class="hidden fixed inset-0 bg-black/70 flex items-center justify-center p-4">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6 w-full max-w-md">
        <h3 id="modal-title" class="text-lg font-semibold mb-4"></h3>
        <div id="modal-body"></div>
    </div>
</div>

<script>
(function () {
    'use strict';

    var VERIFIER_KEY = 'deck.oauth.verifier';

    // ---- error banner -------------------------------------------------
    var bannerTimer = null;
    function showError(msg) {
        var el = document.getElementById('banner');
        el.textContent = msg;
        el.classList.remove('hidden');
        clearTimeout(bannerTimer);
        bannerTimer = setTimeout(function () { el.classList.add('hidden'); }, 6000);
    }

    // ---- providers ----------------------------------------------------
    function loadProviders() {
        fetch('/api/opencode/providers/summary')
            .then(function (r) {
                if (!r.ok) throw new Error('summary failed (' + r.status + ')');
                return r.json();
            })
            .then(renderProviders)
            .catch(function (e) { showError('Could not load providers: ' + e.message); });
    }

    function renderProviders(summary) {
        document.getElementById('summary').textContent =
            summary.authenticated + ' connected / ' + summary.total + ' providers';

        var root = document.getElementById('providers');
        root.innerHTML = '';
        (summary.providers || []).forEach(function (p) {
            var card = document.createElement('div');
            card.className = 'bg-gray-900 border border-gray-800 rounded-lg p-4';

            var badge = p.authenticated
                ? '<span class="text-xs px-2 py-0.5 rounded bg-green-900 text-green-300">connected</span>'
                : '<span class="text-xs px-2 py-0.5 rounded bg-gray-800 text-gray-400">not connected</span>';
            var models = Object.keys(p.models || {}).length;

            card.innerHTML =
                '<div class="flex items-center justify-between mb-2">' +
                '<span class="font-semibold">' + p.name + '</span>' + badge + '</div>' +
                '<p class="text-xs text-gray-500 mb-3">' + p.id + ' · ' + models + ' models</p>';

            var actions = document.createElement('div');
            actions.className = 'flex gap-2';
            if (p.id === 'anthropic') {
                actions.appendChild(button('OAuth login', function () { openOAuthModal('max'); }));
                actions.appendChild(button('Create API key', function () { openOAuthModal('console'); }));
            } else {
                actions.appendChild(button('Set API key', function () { openAPIKeyModal(p.id); }));
            }
            if (p.authenticated) {
                actions.appendChild(button('Disconnect', function () { clearAuth(p.id); }, true));
            }
            card.appendChild(actions);
            root.appendChild(card);
        });
    }

    function button(label, onClick, danger) {
        var b = document.createElement('button');
        b.textContent = label;
        b.className = danger
            ? 'text-xs px-3 py-1.5 rounded bg-red-900/50 hover:bg-red-900 text-red-200'
            : 'text-xs px-3 py-1.5 rounded bg-primary/20 hover:bg-primary/40 text-indigo-200';
        b.addEventListener('click', onClick);
        return b;
    }

    function clearAuth(id) {
        fetch('/api/opencode/auth/' + encodeURIComponent(id), { method: 'DELETE' })
            .then(function (r) {
                if (!r.ok) throw new Error('clear failed (' + r.status + ')');
                loadProviders();
            })
            .catch(function (e) { showError('Could not clear credential: ' + e.message); });
    }

    // ---- modal host ---------------------------------------------------
    function openModal(title, bodyEl) {
        document.getElementById('modal-title').textContent = title;
        var body = document.getElementById('modal-body');
        body.innerHTML = '';
        body.appendChild(bodyEl);
        document.getElementById('modal').classList.remove('hidden');
    }
    function closeModal() {
        document.getElementById('modal').classList.add('hidden');
    }

    // ---- Anthropic OAuth / PKCE flow ---------------------------------
    function openOAuthModal(mode) {
        fetch('/api/anthropic/oauth/authorize?mode=' + mode)
            .then(function (r) {
                if (!r.ok) throw new Error('authorize failed (' + r.status + ')');
                return r.json();
            })
            .then(function (data) {
                // The verifier lives in session storage only for this attempt.
                sessionStorage.setItem(VERIFIER_KEY, data.verifier);

                var wrap = document.createElement('div');
                wrap.innerHTML =
                    '<p class="text-sm text-gray-300 mb-3">1. Authorize in the new tab.<br>2. Paste the code shown on the callback page.</p>' +
                    '<a href="' + data.url + '" target="_blank" class="text-primary underline text-sm">Open authorization page</a>' +
                    '<input id="oauth-code" class="mt-4 w-full bg-gray-800 rounded px-3 py-2 text-sm" placeholder="code#state">' +
                    '<div class="flex justify-end gap-2 mt-4">' +
                    '<button id="oauth-cancel" class="text-sm px-3 py-1.5 rounded bg-gray-800">Cancel</button>' +
                    '<button id="oauth-submit" class="text-sm px-3 py-1.5 rounded bg-primary text-white">Exchange</button>' +
                    '</div>';
                openModal(mode === 'console' ? 'Anthropic API key login' : 'Anthropic OAuth login', wrap);

                document.getElementById('oauth-cancel').addEventListener('click', function () {
                    sessionStorage.removeItem(VERIFIER_KEY);
                    closeModal();
                });
                document.getElementById('oauth-submit').addEventListener('click', function () {
                    completeOAuthFlow(mode, document.getElementById('oauth-code').value);
                });
            })
            .catch(function (e) { showError('Could not start OAuth flow: ' + e.message); });
    }

    function completeOAuthFlow(mode, code) {
        var verifier = sessionStorage.getItem(VERIFIER_KEY);
        var endpoint = mode === 'console' ? '/api/anthropic/oauth/api-key' : '/api/anthropic/oauth/token';

        fetch(endpoint, {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify({ code: code, verifier: verifier })
        })
            .then(function (r) {
                if (!r.ok) throw new Error('exchange failed (' + r.status + ')');
                closeModal();
                loadProviders();
            })
            .catch(function (e) { showError('Login failed: ' + e.message); })
            .finally(function () {
                // Used once: drop the pair whether the exchange worked or not.
                sessionStorage.removeItem(VERIFIER_KEY);
            });
    }

    function openAPIKeyModal(providerID) {
        var wrap = document.createElement('div');
        wrap.innerHTML =
            '<input id="apikey-value" class="w-full bg-gray-800 rounded px-3 py-2 text-sm" placeholder="API key">' +
            '<div class="flex justify-end gap-2 mt-4">' +
            '<button id="apikey-cancel" class="text-sm px-3 py-1.5 rounded bg-gray-800">Cancel</button>' +
            '<button id="apikey-save" class="text-sm px-3 py-1.5 rounded bg-primary text-white">Save</button>' +
            '</div>';
        openModal('API key for ' + providerID, wrap);

        document.getElementById('apikey-cancel').addEventListener('click', closeModal);
        document.getElementById('apikey-save').addEventListener('click', function () {
            fetch('/api/opencode/auth/' + encodeURIComponent(providerID), {
                method: 'PUT',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ type: 'api', key: document.getElementById('apikey-value').value })
            })
                .then(function (r) {
                    if (!r.ok) throw new Error('save failed (' + r.status + ')');
                    closeModal();
                    loadProviders();
                })
                .catch(function (e) { showError('Could not save key: ' + e.message); });
        });
    }

    // ---- chat widget --------------------------------------------------
    // States: no-session -> session-active <-> awaiting-reply
    var chat = {
        state: 'no-session',
        sessionId: null,
        events: null,
        pollTimer: null,
        assistantEl: null,
        assistantParts: {} // partID -> text
    };

    function setChatState(s) {
        chat.state = s;
        document.getElementById('chat-state').textContent = s;
        document.getElementById('chat-send').disabled = (s !== 'session-active');
    }

    function appendMessage(role, text) {
        var log = document.getElementById('chat-log');
        var div = document.createElement('div');
        div.className = role === 'user'
            ? 'text-right text-indigo-200'
            : 'text-left text-gray-200 whitespace-pre-wrap';
        div.textContent = text;
        log.appendChild(div);
        log.scrollTop = log.scrollHeight;
        return div;
    }

    function initChat() {
        fetch('/api/opencode/session', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify({ title: 'deck chat' })
        })
            .then(function (r) {
                if (!r.ok) throw new Error('session create failed (' + r.status + ')');
                return r.json();
            })
            .then(function (session) {
                chat.sessionId = session.id;
                setChatState('session-active');
                subscribeEvents();
            })
            .catch(function (e) { showError('Chat unavailable: ' + e.message); });
    }

    function subscribeEvents() {
        chat.events = new EventSource('/api/opencode/events?sessionID=' + encodeURIComponent(chat.sessionId));
        chat.events.onmessage = function (ev) {
            var data;
            try { data = JSON.parse(ev.data); } catch (e) { return; }
            handleEvent(data);
        };
        // A dropped stream is survivable: sends still work and the fallback
        // poll picks up replies.
        chat.events.onerror = function () {};
    }

    function handleEvent(data) {
        if (data.type === 'message.part.updated') {
            var part = (data.properties && data.properties.part) || {};
            if (part.type !== 'text' || part.sessionID !== chat.sessionId) return;
            chat.assistantParts[part.id || 'p0'] = part.text || '';
            renderAssistant();
        } else if (data.type === 'session.idle') {
            var sid = data.properties && (data.properties.sessionID ||
                (data.properties.info && data.properties.info.sessionID));
            if (sid !== chat.sessionId) return;
            finalizeAssistant();
        }
    }

    function renderAssistant() {
        var text = Object.keys(chat.assistantParts).sort().map(function (k) {
            return chat.assistantParts[k];
        }).join('');
        if (!chat.assistantEl) chat.assistantEl = appendMessage('assistant', '');
        chat.assistantEl.textContent = text;
    }

    function finalizeAssistant() {
        clearTimeout(chat.pollTimer);
        chat.assistantEl = null;
        chat.assistantParts = {};
        setChatState('session-active');
    }

    function pollMessages() {
        fetch('/api/opencode/session/' + encodeURIComponent(chat.sessionId) + '/message')
            .then(function (r) {
                if (!r.ok) throw new Error('poll failed (' + r.status + ')');
                return r.json();
            })
            .then(function (messages) {
                var last = messages[messages.length - 1];
                if (!last || last.info.role !== 'assistant') return;
                var text = (last.parts || []).filter(function (p) { return p.type === 'text'; })
                    .map(function (p) { return p.text || ''; }).join('');
                if (!text) return;
                if (!chat.assistantEl) chat.assistantEl = appendMessage('assistant', '');
                chat.assistantEl.textContent = text;
                finalizeAssistant();
            })
            .catch(function (e) { showError('Reply fetch failed: ' + e.message); });
    }

    document.getElementById('chat-form').addEventListener('submit', function (ev) {
        ev.preventDefault();
        if (chat.state !== 'session-active') return;
        var input = document.getElementById('chat-input');
        var text = input.value.trim();
        if (!text) return;

        appendMessage('user', text);
        input.value = '';
        setChatState('awaiting-reply');

        fetch('/api/opencode/session/' + encodeURIComponent(chat.sessionId) + '/message', {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify({ parts: [{ type: 'text', text: text }] })
        })
            .then(function (r) {
                if (!r.ok) throw new Error('send failed (' + r.status + ')');
                // Fallback poll in case events were missed or the stream dropped.
                chat.pollTimer = setTimeout(pollMessages, 10000);
            })
            .catch(function (e) {
                showError('Send failed: ' + e.message);
                setChatState('session-active');
            });
    });

    window.addEventListener('beforeunload', function () {
        if (chat.events) chat.events.close();
    });

    loadProviders();
    initChat();
})();
</script>
</body>
</html>`
