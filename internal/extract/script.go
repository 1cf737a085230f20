package extract

import "fmt"

// bindingName is the host function the injected script calls to report
// events. Registered on every new document before navigation commits.
const bindingName = "__copilotTrackerPush"

// billingURL is the one page this tool knows how to read.
const billingURL = "https://github.com/settings/billing"

// extractionScript returns the page script. It waits settleDelayMS after
// injection so client-side rendering can finish, then recovers the billing
// customer id (API endpoint, embedded-data script tag, then HTML regex
// scan, first hit wins), fetches the usage card and usage table with it,
// and reports everything through the bridge binding as three events:
// "customer", "usage", "complete".
func extractionScript(settleDelayMS int64) string {
	return fmt.Sprintf(`(function() {
  function push(name, payload) {
    try {
      window.%s(JSON.stringify({ name: name, payload: payload }));
    } catch (e) {
      console.error('bridge push failed', e);
    }
  }

  async function getUserId() {
    try {
      const response = await fetch('/api/v3/user', {
        headers: { 'Accept': 'application/json' }
      });
      if (!response.ok) {
        return { success: false, error: 'API request failed: ' + response.status };
      }
      const data = await response.json();
      return { success: true, id: data.id };
    } catch (error) {
      return { success: false, error: error.message };
    }
  }

  function getCustomerIdFromDOM() {
    try {
      const el = document.querySelector('script[data-target="react-app.embeddedData"]');
      if (!el) {
        return { success: false, error: 'Embedded data element not found' };
      }
      const data = JSON.parse(el.textContent);
      const customerId = data?.payload?.customer?.customerId;
      if (!customerId) {
        return { success: false, error: 'Customer ID not found in embedded data' };
      }
      return { success: true, id: customerId };
    } catch (error) {
      return { success: false, error: error.message };
    }
  }

  function getCustomerIdFromHTML() {
    try {
      const html = document.body.innerHTML;
      const patterns = [
        /customerId":(\d+)/,
        /customerId&quot;:(\d+)/,
        /customer_id=(\d+)/,
        /"customerId":(\d+)/,
        /data-customer-id="(\d+)"/
      ];
      for (const pattern of patterns) {
        const match = html.match(pattern);
        if (match && match[1]) {
          return { success: true, id: parseInt(match[1]) };
        }
      }
      return { success: false, error: 'No customer ID pattern matched' };
    } catch (error) {
      return { success: false, error: error.message };
    }
  }

  async function extractCustomerId() {
    let result = await getUserId();
    if (!result.success) {
      result = getCustomerIdFromDOM();
    }
    if (!result.success) {
      result = getCustomerIdFromHTML();
    }
    return result;
  }

  async function fetchUsageCard(customerId) {
    try {
      const res = await fetch('/settings/billing/copilot_usage_card?customer_id=' + customerId + '&period=3', {
        headers: {
          'Accept': 'application/json',
          'x-requested-with': 'XMLHttpRequest'
        }
      });
      if (!res.ok) {
        return { success: false, error: 'Usage card request failed: ' + res.status };
      }
      const data = await res.json();
      return { success: true, data };
    } catch (error) {
      return { success: false, error: error.message };
    }
  }

  async function fetchUsageTable(customerId) {
    try {
      const res = await fetch('/settings/billing/copilot_usage_table?customer_id=' + customerId + '&group=0&period=3&query=&page=1', {
        headers: {
          'Accept': 'application/json',
          'x-requested-with': 'XMLHttpRequest'
        }
      });
      if (!res.ok) {
        return { success: false, error: 'Usage table request failed: ' + res.status };
      }
      const data = await res.json();
      const rows = ((data || {}).rows || []).map(function(row) {
        return {
          date: String(row.date || ''),
          included_requests: Number(row.included_requests) || 0,
          billed_requests: Number(row.billed_requests) || 0,
          gross_amount: String(row.gross_amount ?? '0'),
          billed_amount: String(row.billed_amount ?? '0')
        };
      });
      return { success: true, rows: rows };
    } catch (error) {
      return { success: false, error: error.message };
    }
  }

  async function run() {
    const customer = await extractCustomerId();
    push('customer', customer);
    if (!customer.success) {
      push('complete', { success: false, error: customer.error });
      return;
    }

    const usageCard = await fetchUsageCard(customer.id);
    const usageTable = await fetchUsageTable(customer.id);
    push('usage', { usageCard: usageCard, usageTable: usageTable });
    push('complete', { success: true });
  }

  setTimeout(run, %d);
})();`, bindingName, settleDelayMS)
}
